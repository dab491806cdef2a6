package mockserver

import (
	"bufio"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gongwen/pkg/client"
)

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGenerate streams the scripted generation for the posted form.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	docType := strings.TrimSpace(c.FormValue("doc_type"))
	userInput := strings.TrimSpace(c.FormValue("user_input"))
	convID := c.FormValue("conv_id")

	if userInput == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "user_input is required")
	}
	if docType == "" {
		docType = "通知"
	}

	script := s.config.Script
	chunks := script.Chunks
	if len(chunks) == 0 {
		chunks = defaultChunks(docType, userInput)
	}

	filename := docType + "_" + time.Now().Format("20060102150405") + ".docx"
	metadata := map[string]any{"filename": filename}
	if script.ErrorDetail == "" {
		newConvID, docID := s.store.recordGeneration(convID, docType, userInput, joinContent(chunks), filename)
		metadata["conv_id"] = newConvID
		metadata["doc_id"] = docID
	}
	maps.Copy(metadata, script.Metadata)

	frames := script.render(docType, userInput, metadata)

	s.logger.Debug("streaming generation",
		"doc_type", docType,
		"conv_id", convID,
		"template_id", c.FormValue("template_id"),
		"frames", len(frames),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	if script.Delay <= 0 && script.SplitBytes <= 0 {
		return c.SendString(strings.Join(frames, ""))
	}

	// io.Pipe gives per-write flushing with chunked transfer encoding.
	pr, pw := io.Pipe()
	go s.writeFrames(pw, frames, script)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writeFrames(pw *io.PipeWriter, frames []string, script Script) {
	defer pw.Close()

	w := bufio.NewWriter(pw)
	for _, f := range frames {
		for _, piece := range split(f, script.SplitBytes) {
			if _, err := w.WriteString(piece); err != nil {
				s.logger.Debug("client went away", "error", err)
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
		if script.Delay > 0 {
			time.Sleep(script.Delay)
		}
	}
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	return c.JSON(s.store.listConversations())
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	conv, ok := s.store.conversation(c.Params("id"))
	if !ok {
		return detail(c, fiber.StatusNotFound, "会话不存在")
	}
	return c.JSON(conv)
}

func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	if !s.store.deleteConversation(c.Params("id")) {
		return detail(c, fiber.StatusNotFound, "会话不存在")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListTemplates(c *fiber.Ctx) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return c.JSON(paginate(s.store.templates, c.QueryInt("page", 1), c.QueryInt("page_size", 10)))
}

func (s *Server) handleUploadTemplate(c *fiber.Ctx) error {
	name := c.FormValue("name")
	if name == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "name is required")
	}
	file, err := c.FormFile("file")
	if err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "file is required")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	tmpl := client.Template{
		ID:        s.store.id(),
		Name:      name,
		DocType:   c.FormValue("doc_type"),
		Filename:  file.Filename,
		CreatedAt: time.Now().UTC(),
	}
	s.store.templates = append(s.store.templates, tmpl)

	return c.Status(fiber.StatusCreated).JSON(tmpl)
}

func (s *Server) handleDeleteTemplate(c *fiber.Ctx) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	id := c.Params("id")
	i := slices.IndexFunc(s.store.templates, func(t client.Template) bool { return t.ID == id })
	if i < 0 {
		return detail(c, fiber.StatusNotFound, "模板不存在")
	}
	s.store.templates = slices.Delete(s.store.templates, i, i+1)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	docs := slices.Clone(s.store.documents)
	slices.Reverse(docs)
	return c.JSON(paginate(docs, c.QueryInt("page", 1), c.QueryInt("page_size", 10)))
}

func (s *Server) handleDownloadDocument(c *fiber.Ctx) error {
	s.store.mu.Lock()
	body, ok := s.store.docBodies[c.Params("id")]
	s.store.mu.Unlock()

	if !ok {
		return detail(c, fiber.StatusNotFound, "文档不存在")
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	return c.Send(body)
}

func (s *Server) handleListModelConfigs(c *fiber.Ctx) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return c.JSON(s.store.models)
}

func (s *Server) handleSaveModelConfig(c *fiber.Ctx) error {
	var cfg client.ModelConfig
	if err := c.BodyParser(&cfg); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := cfg.Validate(); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if id := c.Params("id"); id != "" {
		i := slices.IndexFunc(s.store.models, func(m client.ModelConfig) bool { return m.ID == id })
		if i < 0 {
			return detail(c, fiber.StatusNotFound, "模型配置不存在")
		}
		cfg.ID = id
		s.store.models[i] = cfg
		return c.JSON(cfg)
	}

	cfg.ID = s.store.id()
	s.store.models = append(s.store.models, cfg)
	return c.Status(fiber.StatusCreated).JSON(cfg)
}

func (s *Server) handleDeleteModelConfig(c *fiber.Ctx) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	id := c.Params("id")
	i := slices.IndexFunc(s.store.models, func(m client.ModelConfig) bool { return m.ID == id })
	if i < 0 {
		return detail(c, fiber.StatusNotFound, "模型配置不存在")
	}
	s.store.models = slices.Delete(s.store.models, i, i+1)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleActivateModelConfig(c *fiber.Ctx) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	id := c.Params("id")
	if !slices.ContainsFunc(s.store.models, func(m client.ModelConfig) bool { return m.ID == id }) {
		return detail(c, fiber.StatusNotFound, "模型配置不存在")
	}
	for i := range s.store.models {
		s.store.models[i].Active = s.store.models[i].ID == id
	}
	return c.SendStatus(fiber.StatusNoContent)
}
