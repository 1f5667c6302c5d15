// Package api serves the mirror and the attachment store to the
// dashboard UI over a local HTTP surface, with live updates over SSE.
package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/woorkia/nexus-business/blob"
	"github.com/woorkia/nexus-business/domain"
	"github.com/woorkia/nexus-business/mirror"
)

const (
	mutationMaxSize   = 1 << 20
	attachmentMaxSize = 25 << 20
)

// Register wires up all routes on the provided Echo instance and hooks
// the stream broker into the mirror's change feed.
func Register(e *echo.Echo, store *mirror.Store, blobs *blob.Store, logger *log.Logger) {
	broker := newUpdateBroker()
	store.OnChange(func(string) { broker.notify() })

	e.GET("/api/tasks", getTasks(store, logger))
	e.POST("/api/tasks", postTask(store))
	e.PATCH("/api/tasks/:id", patchTask(store))
	e.DELETE("/api/tasks/:id", deleteTask(store))

	e.GET("/api/projects", getProjects(store, logger))
	e.POST("/api/projects", postProject(store))
	e.PATCH("/api/projects/:id", patchProject(store))
	e.DELETE("/api/projects/:id", deleteProject(store, blobs))

	e.GET("/api/events", getEvents(store, logger))
	e.POST("/api/events", postEvent(store))
	e.PATCH("/api/events/:id", patchEvent(store))
	e.DELETE("/api/events/:id", deleteEvent(store))

	e.POST("/api/projects/:id/files", postAttachment(blobs))
	e.GET("/api/projects/:id/files", listAttachments(blobs))
	e.GET("/api/files/:id", getAttachment(blobs))
	e.DELETE("/api/files/:id", deleteAttachment(blobs))

	e.GET("/stream", streamMirror(store, broker))
	e.GET("/healthz", healthz())
}

type tasksResponse struct {
	Tasks  []domain.Task `json:"tasks"`
	Loaded bool          `json:"loaded"`
}

type projectsResponse struct {
	Projects []domain.Project `json:"projects"`
	Loaded   bool             `json:"loaded"`
}

type eventsResponse struct {
	Events []domain.Event `json:"events"`
	Loaded bool           `json:"loaded"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(store *mirror.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newRequestMetrics(logger, "/api/tasks")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		resp := tasksResponse{
			Tasks:  store.Tasks(),
			Loaded: store.Loaded(domain.CollectionTasks),
		}
		metrics.SetItemsReturned(len(resp.Tasks))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getProjects(store *mirror.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newRequestMetrics(logger, "/api/projects")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		resp := projectsResponse{
			Projects: store.Projects(),
			Loaded:   store.Loaded(domain.CollectionProjects),
		}
		metrics.SetItemsReturned(len(resp.Projects))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getEvents(store *mirror.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newRequestMetrics(logger, "/api/events")
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		resp := eventsResponse{
			Events: store.Events(),
			Loaded: store.Loaded(domain.CollectionEvents),
		}
		metrics.SetItemsReturned(len(resp.Events))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, resp)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, mutationMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// A failed remote write is reported as 502 but the optimistic mirror
// state is not reverted; the UI keeps showing it until the next
// notification or reload.
func mutationStatus(c echo.Context, err error) error {
	if err != nil {
		return c.String(http.StatusBadGateway, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func postTask(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var t domain.Task
		if err := decodeBody(c, &t); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.CreateTask(c.Request().Context(), t); err != nil {
			return c.String(http.StatusBadGateway, err.Error())
		}
		return c.NoContent(http.StatusAccepted)
	}
}

func patchTask(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var updates map[string]any
		if err := decodeBody(c, &updates); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		return mutationStatus(c, store.UpdateTask(c.Request().Context(), c.Param("id"), updates))
	}
}

func deleteTask(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return mutationStatus(c, store.RemoveTask(c.Request().Context(), c.Param("id")))
	}
}

func postProject(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var p domain.Project
		if err := decodeBody(c, &p); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.CreateProject(c.Request().Context(), p); err != nil {
			return c.String(http.StatusBadGateway, err.Error())
		}
		return c.NoContent(http.StatusAccepted)
	}
}

func patchProject(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var updates map[string]any
		if err := decodeBody(c, &updates); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		return mutationStatus(c, store.UpdateProject(c.Request().Context(), c.Param("id"), updates))
	}
}

// deleteProject removes the project and its local attachments. The
// project's tasks are kept with their projectId intact.
func deleteProject(store *mirror.Store, blobs *blob.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		id := c.Param("id")
		if err := blobs.RemoveByOwner(ctx, id); err != nil {
			log.WithError(err).WithField("project", id).Error("failed to remove project attachments")
		}
		return mutationStatus(c, store.RemoveProject(ctx, id))
	}
}

func postEvent(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var ev domain.Event
		if err := decodeBody(c, &ev); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := store.CreateEvent(c.Request().Context(), ev); err != nil {
			return c.String(http.StatusBadGateway, err.Error())
		}
		return c.NoContent(http.StatusAccepted)
	}
}

func patchEvent(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var updates map[string]any
		if err := decodeBody(c, &updates); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		return mutationStatus(c, store.UpdateEvent(c.Request().Context(), c.Param("id"), updates))
	}
}

func deleteEvent(store *mirror.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return mutationStatus(c, store.RemoveEvent(c.Request().Context(), c.Param("id")))
	}
}

func postAttachment(blobs *blob.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return c.String(http.StatusBadRequest, "missing file")
		}
		if fh.Size > attachmentMaxSize {
			return c.String(http.StatusRequestEntityTooLarge, "file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return c.String(http.StatusBadRequest, "unreadable file")
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, attachmentMaxSize))
		if err != nil {
			return c.String(http.StatusBadRequest, "unreadable file")
		}
		att, err := blobs.Put(
			c.Request().Context(),
			c.Param("id"),
			fh.Filename,
			fh.Header.Get("Content-Type"),
			c.FormValue("category"),
			data,
		)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusCreated, att)
	}
}

type attachmentsResponse struct {
	Files []domain.Attachment `json:"files"`
}

func listAttachments(blobs *blob.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		files, err := blobs.ListByOwner(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		if files == nil {
			files = []domain.Attachment{}
		}
		return c.JSON(http.StatusOK, attachmentsResponse{Files: files})
	}
}

func getAttachment(blobs *blob.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		att, err := blobs.Get(c.Request().Context(), c.Param("id"))
		if errors.Is(err, blob.ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+att.Name+`"`)
		return c.Blob(http.StatusOK, att.MimeType, att.Data)
	}
}

func deleteAttachment(blobs *blob.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := blobs.Remove(c.Request().Context(), c.Param("id")); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.NoContent(http.StatusNoContent)
	}
}
