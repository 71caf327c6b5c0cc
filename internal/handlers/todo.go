package handlers

import (
	"net/http"

	dom "github.com/birlikkoshan/todo-api/internal/domain"
	"github.com/birlikkoshan/todo-api/internal/dto"
	"github.com/birlikkoshan/todo-api/internal/query"
	"github.com/birlikkoshan/todo-api/internal/service"
	"github.com/birlikkoshan/todo-api/internal/stats"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TodoHandler struct {
	svc *service.TodoService
	log *zap.Logger
}

func NewTodoHandler(svc *service.TodoService, log *zap.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), req.Input())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, todoToResponse(t))
}

// List godoc
// @Summary      List todos with filters and pagination
// @Description  Filters are ANDed. search matches title or description, case-insensitive.
// @Tags         todos
// @Produce      json
// @Param        page        query     int     false  "Page number"  default(1)  minimum(1)
// @Param        size        query     int     false  "Page size"    default(10) minimum(1) maximum(100)
// @Param        status      query     string  false  "Status"       Enums(pending, in_progress, completed)
// @Param        priority    query     string  false  "Priority"     Enums(low, medium, high)
// @Param        search      query     string  false  "Text in title or description"
// @Param        tag         query     string  false  "Exact tag"
// @Param        due_before  query     string  false  "due_date <= value"
// @Param        due_after   query     string  false  "due_date >= value"
// @Success      200  {object}  dto.ListTodosResponse
// @Failure      422  {object}  dto.ValidationErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	page, err := q.ToPage()
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	criteria, err := q.Criteria()
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	listing, err := h.svc.List(c.Request.Context(), criteria, page)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, listingToResponse(listing))
}

// Search godoc
// @Summary      Search todos
// @Description  query is required. All given tags must be present.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SearchRequest  true  "Search body"
// @Param        page  query     int  false  "Page number"  default(1)
// @Param        size  query     int  false  "Page size"    default(10)
// @Success      200   {object}  dto.ListTodosResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/search [post]
func (h *TodoHandler) Search(c *gin.Context) {
	var pq dto.PageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	page, err := pq.ToPage()
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}

	listing, err := h.svc.Search(c.Request.Context(), req.Query, req.Criteria(), page)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, listingToResponse(listing))
}

// Stats godoc
// @Summary      Todo statistics
// @Description  start_date/end_date bound created_at inclusively for every figure.
// @Tags         todos
// @Produce      json
// @Param        start_date  query     string  false  "created_at >= value"
// @Param        end_date    query     string  false  "created_at <= value"
// @Success      200  {object}  dto.StatsResponse
// @Failure      422  {object}  dto.ValidationErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/stats [get]
func (h *TodoHandler) Stats(c *gin.Context) {
	var q dto.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	from, to, err := q.Bounds()
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	st, err := h.svc.Stats(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, statsToResponse(st))
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Update godoc
// @Summary      Update a todo
// @Description  Absent fields are unchanged. null clears description and due_date and empties tags.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Full or partial update"
// @Success      200   {object}  dto.TodoResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	patch, err := req.Patch("")
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// UpdateStatus godoc
// @Summary      Change a todo's status
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "Todo ID"
// @Param        body  body      dto.UpdateStatusRequest  true  "New status"
// @Success      200   {object}  dto.TodoResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id}/status [patch]
func (h *TodoHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}

	t, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), dom.Status(req.Status))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Param        id   path  string  true  "Todo ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkCreate godoc
// @Summary      Create up to 100 todos at once
// @Description  Every item is validated before anything is inserted.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.BulkCreateRequest  true  "Todos"
// @Success      201   {array}   dto.TodoResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/bulk [post]
func (h *TodoHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	items := make([]dom.TodoInput, len(req.Todos))
	for i, r := range req.Todos {
		items[i] = r.Input()
	}

	list, err := h.svc.BulkCreate(c.Request.Context(), items)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, todosToResponses(list))
}

// BulkUpdate godoc
// @Summary      Update several todos at once
// @Description  If any id is missing nothing is updated and the missing ids are reported.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.BulkUpdateRequest  true  "id -> partial update"
// @Success      200   {array}   dto.TodoResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/bulk [put]
func (h *TodoHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	patches, err := req.Patches()
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	list, err := h.svc.BulkUpdate(c.Request.Context(), patches)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, todosToResponses(list))
}

func todoToResponse(t dom.Todo) dto.TodoResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func todosToResponses(list []dom.Todo) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = todoToResponse(list[i])
	}
	return out
}

func listingToResponse(l query.Listing) dto.ListTodosResponse {
	return dto.ListTodosResponse{
		Todos:      todosToResponses(l.Items),
		Total:      l.Total,
		Page:       l.Page,
		Size:       l.Size,
		TotalPages: l.TotalPages,
	}
}

func statsToResponse(s stats.Stats) dto.StatsResponse {
	resp := dto.StatsResponse{
		TotalTodos:        s.Total,
		CompletedTodos:    s.Completed,
		PendingTodos:      s.Pending,
		InProgressTodos:   s.InProgress,
		OverdueTodos:      s.Overdue,
		HighPriorityTodos: s.HighPriority,
		CompletionRate:    s.CompletionRate,
		TodosByPriority:   make(map[string]int, len(s.ByPriority)),
		TodosByStatus:     make(map[string]int, len(s.ByStatus)),
		TodosByTag:        make(map[string]int, len(s.ByTag)),
		OverdueByPriority: make(map[string]int, len(s.OverdueByPriority)),
	}
	for p, n := range s.ByPriority {
		resp.TodosByPriority[string(p)] = n
	}
	for st, n := range s.ByStatus {
		resp.TodosByStatus[string(st)] = n
	}
	for tag, n := range s.ByTag {
		resp.TodosByTag[tag] = n
	}
	for p, n := range s.OverdueByPriority {
		resp.OverdueByPriority[string(p)] = n
	}
	return resp
}
