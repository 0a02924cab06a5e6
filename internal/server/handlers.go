package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/buildinfo"
	pferrors "github.com/matzehuels/packetflow/pkg/errors"
	"github.com/matzehuels/packetflow/pkg/pipeline"
	"github.com/matzehuels/packetflow/pkg/render/sink"
	"github.com/matzehuels/packetflow/pkg/route"
	"github.com/matzehuels/packetflow/pkg/topology"
)

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Version,
		"sessions": s.sessions.len(),
	})
}

// =============================================================================
// Routes and layouts
// =============================================================================

type routeSummary struct {
	Destination string `json:"destination"`
	Hops        int    `json:"hops"`
}

type routeDetail struct {
	Destination string      `json:"destination"`
	Hops        []route.Hop `json:"hops"`
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	dests, err := s.runner.Routes.Destinations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]routeSummary, 0, len(dests))
	for _, d := range dests {
		hops, err := s.runner.Resolve(r.Context(), pipeline.Options{Destination: d})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, routeSummary{Destination: d, Hops: len(hops)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	dest := chi.URLParam(r, "dest")
	hops, err := s.runner.Resolve(r.Context(), pipeline.Options{Destination: dest})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routeDetail{Destination: dest, Hops: hops})
}

// handleLayout renders the static layout of a route, or of the default
// topology when no destination is given. Query parameters: width, height,
// dpr, view (frame|nodelink), format, detailed, pinned, refresh.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Destination: chi.URLParam(r, "dest"),
		View:        q.Get("view"),
		Detailed:    queryBool(q.Get("detailed")),
		Pinned:      queryBool(q.Get("pinned")),
		Refresh:     queryBool(q.Get("refresh")),
	}
	var err error
	if opts.Width, err = queryFloat(q.Get("width"), s.cfg.Width); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Height, err = queryFloat(q.Get("height"), s.cfg.Height); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.DPR, err = queryFloat(q.Get("dpr"), s.cfg.DPR); err != nil {
		s.writeError(w, r, err)
		return
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := sink.ContentType(format)
	if format == pipeline.FormatDOT {
		contentType = "text/vnd.graphviz"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Cache-Hit", strconv.FormatBool(res.CacheInfo.RenderHit))
	_, _ = w.Write(res.Artifacts[format])
}

// =============================================================================
// Sessions
// =============================================================================

type createSessionRequest struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	DPR    float64 `json:"dpr,omitempty"`
	Policy string  `json:"policy,omitempty"`
	FPS    int     `json:"fps,omitempty"`
}

type sessionInfo struct {
	ID       uuid.UUID        `json:"id"`
	Policy   string           `json:"policy"`
	FPS      int              `json:"fps"`
	Created  time.Time        `json:"created"`
	Now      time.Duration    `json:"now"`
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	DPR      float64          `json:"dpr"`
	Packets  int              `json:"packets"`
	Pending  []anim.Scheduled `json:"pending"`
	Replay   bool             `json:"replay"`
	Default  bool             `json:"default_topology"`
	Expanded bool             `json:"expanded"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	policy := s.cfg.Policy
	if req.Policy != "" {
		p, err := anim.ParsePendingPolicy(req.Policy)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		policy = p
	}
	width, height, dpr, fps := s.cfg.Width, s.cfg.Height, s.cfg.DPR, s.cfg.FPS
	if req.Width > 0 {
		width = req.Width
	}
	if req.Height > 0 {
		height = req.Height
	}
	if req.DPR > 0 {
		dpr = req.DPR
	}
	if req.FPS > 0 {
		if req.FPS > 240 {
			s.writeError(w, r, pferrors.New(pferrors.ErrCodeInvalidInput, "fps must be at most 240"))
			return
		}
		fps = req.FPS
	}

	ls := s.sessions.create(topology.NewSurface(width, height, dpr), policy, fps)
	info, err := s.describe(r, ls)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+ls.id.String())
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	all := s.sessions.list()
	out := make([]sessionInfo, 0, len(all))
	for _, ls := range all {
		info, err := s.describe(r, ls)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ls, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info, err := s.describe(r, ls)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.remove(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// describe reads session state on the loop goroutine.
func (s *Server) describe(r *http.Request, ls *liveSession) (sessionInfo, error) {
	info := sessionInfo{
		ID:      ls.id,
		Policy:  ls.policy.String(),
		FPS:     ls.loop.FPS(),
		Created: ls.created,
	}
	err := ls.loop.Do(r.Context(), func(sess *anim.Session) {
		surf := sess.Surface()
		info.Now = sess.Now()
		info.Width = surf.Width()
		info.Height = surf.Height()
		info.DPR = surf.DPR()
		info.Expanded = surf.Expanded()
		info.Packets = len(sess.Packets())
		info.Pending = sess.Pending()
		info.Replay = sess.HasReplay()
		info.Default = sess.Graph().Default
	})
	if err != nil {
		return sessionInfo{}, pferrors.Wrap(pferrors.ErrCodeTimeout, err, "session %s busy", ls.id)
	}
	return info, nil
}

// =============================================================================
// Animation requests
// =============================================================================

// animationRequest names a command and either a destination to look up or
// an explicit route.
type animationRequest struct {
	Command     string      `json:"command"`
	Destination string      `json:"destination,omitempty"`
	Route       []route.Hop `json:"route,omitempty"`
}

type animationResponse struct {
	Command anim.CommandType `json:"command"`
	Group   *uuid.UUID       `json:"group,omitempty"`
	Legs    int              `json:"legs"`
	Hops    int              `json:"hops"`
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	ls, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body animationRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.toRequest(r, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var g *anim.Group
	if err := ls.loop.Do(r.Context(), func(sess *anim.Session) { g = sess.Handle(req) }); err != nil {
		s.writeError(w, r, pferrors.Wrap(pferrors.ErrCodeTimeout, err, "session %s busy", ls.id))
		return
	}

	resp := animationResponse{Command: req.Type, Hops: len(req.Route)}
	if g != nil {
		resp.Group = &g.ID
		resp.Legs = len(g.Tasks)
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// toRequest resolves a destination for commands that use a route. Commands
// that never use one ignore the destination.
func (s *Server) toRequest(r *http.Request, body animationRequest) (anim.Request, error) {
	ct, err := anim.ParseCommandType(body.Command)
	if err != nil {
		return anim.Request{}, err
	}
	req := anim.Request{Type: ct, Route: body.Route}
	if ct.UsesRoute() && len(body.Route) == 0 && body.Destination != "" {
		hops, err := s.runner.Resolve(r.Context(), pipeline.Options{Destination: body.Destination})
		if err != nil {
			return anim.Request{}, err
		}
		req.Route = hops
	}
	return req, req.Validate()
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	s.sessionCommand(w, r, func(ctx context.Context, l *anim.Loop) error { return l.Replay(ctx) })
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.sessionCommand(w, r, func(ctx context.Context, l *anim.Loop) error { return l.Clear(ctx) })
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr,omitempty"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var body resizeRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Width <= 0 || body.Height <= 0 {
		s.writeError(w, r, pferrors.New(pferrors.ErrCodeInvalidInput, "width and height must be positive"))
		return
	}
	s.sessionCommand(w, r, func(ctx context.Context, l *anim.Loop) error {
		if err := l.Resize(ctx, body.Width, body.Height); err != nil {
			return err
		}
		if body.DPR > 0 {
			return l.SetDPR(ctx, body.DPR)
		}
		return nil
	})
}

func (s *Server) sessionCommand(w http.ResponseWriter, r *http.Request, fn func(context.Context, *anim.Loop) error) {
	ls, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := fn(r.Context(), ls.loop); err != nil {
		s.writeError(w, r, pferrors.Wrap(pferrors.ErrCodeTimeout, err, "session %s busy", ls.id))
		return
	}
	info, err := s.describe(r, ls)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleFrame renders the session's latest frame in the requested format.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	ls, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := sink.FormatJSON
	if f := r.URL.Query().Get("format"); f != "" {
		if format, err = sink.ParseFormat(f); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	f, err := ls.loop.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, pferrors.Wrap(pferrors.ErrCodeTimeout, err, "session %s busy", ls.id))
		return
	}
	data, err := sink.Render(f, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", sink.ContentType(format))
	w.Header().Set("X-Frame-Seq", strconv.FormatUint(f.Seq, 10))
	_, _ = w.Write(data)
}

// =============================================================================
// Query helpers
// =============================================================================

func queryBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func queryFloat(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, pferrors.New(pferrors.ErrCodeInvalidInput, "invalid number %q", s)
	}
	return v, nil
}
