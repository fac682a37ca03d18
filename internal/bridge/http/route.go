package http

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/contactsbridge/internal/bridge/channel"
	"github.com/sjzar/contactsbridge/internal/errors"
	"github.com/sjzar/contactsbridge/internal/model"
)

func (s *Service) initRouter() {
	s.initBaseRouter()
	s.initChannelRouter()
	s.initAPIRouter()
	s.initMCPRouter()
}

func (s *Service) initBaseRouter() {
	s.router.GET("/health", func(ctx *gin.Context) {
		state, msg := s.db.GetState()
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "store": state, "message": msg})
	})

	s.router.NoRoute(s.NoRoute)
}

func (s *Service) initChannelRouter() {
	s.router.POST("/api/v1/channel", s.handleChannel)
}

func (s *Service) initAPIRouter() {
	api := s.router.Group("/api/v1")
	{
		api.GET("/permission", s.handlePermissionStatus)
		api.POST("/permission", s.handleRequestPermission)
	}

	contacts := s.router.Group("/api/v1/contacts", s.checkDBStateMiddleware())
	{
		contacts.GET("", s.handleContacts)
		contacts.GET("/search", s.handleSearchContacts)
		contacts.GET("/:id", s.handleGetContact)
		contacts.POST("", s.handleCreateContact)
		contacts.PUT("/:id", s.handleUpdateContact)
		contacts.DELETE("/:id", s.handleDeleteContact)
	}
}

func (s *Service) initMCPRouter() {
	s.router.Any("/mcp", func(c *gin.Context) {
		s.mcpStreamableServer.ServeHTTP(c.Writer, c.Request)
	})
	s.router.Any("/sse", func(c *gin.Context) {
		s.mcpSSEServer.ServeHTTP(c.Writer, c.Request)
	})
	s.router.Any("/message", func(c *gin.Context) {
		s.mcpSSEServer.ServeHTTP(c.Writer, c.Request)
	})
}

// NoRoute handles 404 Not Found errors.
func (s *Service) NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// handleChannel 通道协议，错误放在响应体中，HTTP 状态码始终为 200
func (s *Service) handleChannel(c *gin.Context) {
	var req channel.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, channel.NewErrorResponse(nil, errors.InvalidArguments("invalid request body: %v", err)))
		return
	}
	c.JSON(http.StatusOK, s.ch.Handle(c.Request.Context(), &req))
}

func (s *Service) invoke(c *gin.Context, method string, args map[string]interface{}) (interface{}, bool) {
	result, err := s.ch.Invoke(c.Request.Context(), method, args)
	if err != nil {
		errors.Err(c, err)
		return nil, false
	}
	return result, true
}

func (s *Service) handlePermissionStatus(c *gin.Context) {
	status, ok := s.invoke(c, channel.MethodGetPermissionStatus, nil)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Service) handleRequestPermission(c *gin.Context) {
	q := struct {
		ReadOnly bool `form:"readOnly" json:"readOnly"`
	}{}
	if err := c.ShouldBind(&q); err != nil && c.Request.ContentLength > 0 {
		errors.Err(c, errors.InvalidArguments("%v", err))
		return
	}
	status, ok := s.invoke(c, channel.MethodRequestPermission, map[string]interface{}{"readOnly": q.ReadOnly})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// contactsQuery 与通道参数同名，未出现的参数使用通道默认值
type contactsQuery struct {
	Query          *string `form:"query"`
	WithProperties *bool   `form:"withProperties"`
	WithThumbnail  *bool   `form:"withThumbnail"`
	WithPhoto      *bool   `form:"withPhoto"`
	Sorted         *bool   `form:"sorted"`
	Properties     string  `form:"properties"`
	Format         string  `form:"format"`
}

func (q *contactsQuery) args() map[string]interface{} {
	args := map[string]interface{}{}
	if q.Query != nil {
		args["query"] = *q.Query
	}
	if q.WithProperties != nil {
		args["withProperties"] = *q.WithProperties
	}
	if q.WithThumbnail != nil {
		args["withThumbnail"] = *q.WithThumbnail
	}
	if q.WithPhoto != nil {
		args["withPhoto"] = *q.WithPhoto
	}
	if q.Sorted != nil {
		args["sorted"] = *q.Sorted
	}
	if q.Properties != "" {
		args["properties"] = strings.Split(q.Properties, ",")
	}
	return args
}

func (s *Service) bindContactsQuery(c *gin.Context) (*contactsQuery, bool) {
	q := &contactsQuery{}
	if err := c.BindQuery(q); err != nil {
		errors.Err(c, errors.InvalidArguments("%v", err))
		return nil, false
	}
	return q, true
}

func (s *Service) handleContacts(c *gin.Context) {
	q, ok := s.bindContactsQuery(c)
	if !ok {
		return
	}
	result, ok := s.invoke(c, channel.MethodGetAllContacts, q.args())
	if !ok {
		return
	}
	s.renderContacts(c, q.Format, result)
}

func (s *Service) handleSearchContacts(c *gin.Context) {
	q, ok := s.bindContactsQuery(c)
	if !ok {
		return
	}
	result, ok := s.invoke(c, channel.MethodSearchContacts, q.args())
	if !ok {
		return
	}
	s.renderContacts(c, q.Format, result)
}

func (s *Service) handleGetContact(c *gin.Context) {
	q, ok := s.bindContactsQuery(c)
	if !ok {
		return
	}
	args := q.args()
	args["id"] = c.Param("id")
	result, ok := s.invoke(c, channel.MethodGetContact, args)
	if !ok {
		return
	}
	if result == nil {
		errors.Err(c, errors.ContactNotFound(c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Service) bindContact(c *gin.Context) (map[string]interface{}, bool) {
	var contact map[string]interface{}
	if err := c.ShouldBindJSON(&contact); err != nil {
		errors.Err(c, errors.InvalidArguments("invalid contact: %v", err))
		return nil, false
	}
	if contact == nil {
		contact = map[string]interface{}{}
	}
	return contact, true
}

func (s *Service) handleCreateContact(c *gin.Context) {
	contact, ok := s.bindContact(c)
	if !ok {
		return
	}
	result, ok := s.invoke(c, channel.MethodCreateContact, map[string]interface{}{"contact": contact})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Service) handleUpdateContact(c *gin.Context) {
	contact, ok := s.bindContact(c)
	if !ok {
		return
	}
	contact["id"] = c.Param("id")
	result, ok := s.invoke(c, channel.MethodUpdateContact, map[string]interface{}{"contact": contact})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Service) handleDeleteContact(c *gin.Context) {
	if _, ok := s.invoke(c, channel.MethodDeleteContact, map[string]interface{}{"id": c.Param("id")}); !ok {
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) renderContacts(c *gin.Context, format string, result interface{}) {
	items, _ := result.([]map[string]interface{})

	switch strings.ToLower(format) {
	case "csv":
		c.Writer.Header().Set("Content-Type", "text/csv; charset=utf-8")
		c.Writer.Header().Set("Content-Disposition", "attachment; filename=contacts.csv")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.WriteHeader(http.StatusOK)

		csvWriter := csv.NewWriter(c.Writer)
		csvWriter.Write([]string{"ID", "DisplayName", "Phones", "Emails"})
		for _, contact := range decodeContacts(items) {
			csvWriter.Write(contact.CSV())
		}
		csvWriter.Flush()
	case "text":
		c.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		c.Writer.WriteHeader(http.StatusOK)
		for _, contact := range decodeContacts(items) {
			c.Writer.WriteString(contact.PlainText())
			c.Writer.WriteString("\n")
		}
	default:
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func decodeContacts(items []map[string]interface{}) []*model.Contact {
	contacts := make([]*model.Contact, 0, len(items))
	for _, item := range items {
		contact, err := model.ContactFromMap(item)
		if err != nil {
			log.Debug().Err(err).Msg("skip undecodable contact")
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts
}
