package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/altafuddin/FormFiller/pkg/dispatch"
	"github.com/altafuddin/FormFiller/pkg/forms"
	"github.com/altafuddin/FormFiller/pkg/perf"
	"github.com/altafuddin/FormFiller/pkg/uisync"
)

// ToolInfo describes an available tool for the dashboard.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var availableTools = []ToolInfo{
	{Name: "open_form", Description: "Open a new, empty form"},
	{Name: "update_field", Description: "Update a form field with a value"},
	{Name: "submit_form", Description: "Submit the open form"},
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": s.manager.Count(),
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sessions":     s.manager.Count(),
		"ui_observers": s.hub.ClientCount(),
		"hub_running":  s.hub.IsRunning(),
		"form_types":   s.registry.Types(),
	})
}

func (s *Server) handleListForms(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form_types": s.registry.Types()})
}

func (s *Server) handleGetForm(c *fiber.Ctx) error {
	def, err := s.registry.Lookup(c.Params("type"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(def)
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess := s.manager.Create()
	return c.Status(fiber.StatusCreated).JSON(sess.Snapshot())
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sess.Snapshot())
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	s.manager.Remove(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	return c.JSON(availableTools)
}

// TriggerToolRequest is the request body for a manual tool trigger.
type TriggerToolRequest struct {
	Args map[string]string `json:"args"`
}

// handleTriggerTool drives the dispatcher directly, the same path the
// reasoning engine takes. Useful for dashboards and scripted tests.
func (s *Server) handleTriggerTool(c *fiber.Ctx) error {
	sess, err := s.manager.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, forms.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req TriggerToolRequest
	if err := c.BodyParser(&req); err != nil {
		req.Args = make(map[string]string)
	}

	inv := dispatch.Invocation{
		ID:   uuid.New().String(),
		Tool: dispatch.ToolName(c.Params("name")),
		Args: req.Args,
		Sink: dispatch.NewChanSink(),
	}
	res := s.dispatcher.Dispatch(c.UserContext(), sess, inv)

	return c.Status(statusCodeFor(res)).JSON(res)
}

func statusCodeFor(res dispatch.Result) int {
	switch res.ErrKind {
	case "":
		return fiber.StatusOK
	case dispatch.KindBadArguments:
		return fiber.StatusBadRequest
	case dispatch.KindUnknownFormType:
		return fiber.StatusNotFound
	case dispatch.KindInvalidState:
		return fiber.StatusConflict
	case dispatch.KindDeliveryTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// handlePerf returns the current performance summary per operation.
func (s *Server) handlePerf(c *fiber.Ctx) error {
	body := fiber.Map{"summaries": s.tracker.Summarize()}
	if frac, ok := s.tracker.Under500ms(perf.LabelVoiceInteraction); ok {
		body["under_500ms"] = frac
	}
	return c.JSON(body)
}

// handlePerfLabel returns the summary plus the raw record log for one
// operation label, for drilling into a single tool's latency.
func (s *Server) handlePerfLabel(c *fiber.Ctx) error {
	label := c.Params("label")
	summary, ok := s.tracker.SummarizeLabel(label)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no records for operation " + label})
	}
	return c.JSON(fiber.Map{
		"operation": label,
		"summary":   summary,
		"records":   s.tracker.Records(label),
	})
}

// handleExport writes the latency log to durable storage.
func (s *Server) handleExport(c *fiber.Ctx) error {
	path, err := s.tracker.ExportFile(s.exportDir)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_kind": dispatch.KindExportFailure,
			"error":      err.Error(),
		})
	}
	return c.JSON(fiber.Map{"path": path})
}

// handleUIWS attaches a UI observer to the sync hub.
func (s *Server) handleUIWS(c *websocket.Conn) {
	client := uisync.NewClient(s.hub, c)
	client.Run() // Blocks until the connection closes
}
