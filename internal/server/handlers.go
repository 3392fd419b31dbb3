package server

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Alias1177/TokenTrend/internal/query"
	"github.com/Alias1177/TokenTrend/internal/trend"
	"github.com/Alias1177/TokenTrend/internal/widget"
)

// rendered fragments only change when the entry does
const renderTTL = time.Hour

// snapshot reads the query state for the request. By default it never
// blocks, so a cold pair renders the loading view; ?wait=true waits for
// the fetch instead.
func (s *Server) snapshot(c *fiber.Ctx, pair string) (query.State, error) {
	if !c.QueryBool("wait") {
		return s.queries.Query(pair), nil
	}
	st, err := s.queries.Fetch(c.UserContext(), pair)
	if err != nil {
		return st, fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	}
	return st, nil
}

func (s *Server) getWidget(c *fiber.Ctx) error {
	pair, err := pairParam(c)
	if err != nil {
		return err
	}
	st, err := s.snapshot(c, pair)
	if err != nil {
		return err
	}

	m := widget.Build(pair, st)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set("X-Widget-View", m.View.String())

	cacheKey := fmt.Sprintf("%s|%d", pair, st.UpdatedAt.UnixNano())
	if m.View == widget.ViewLoaded && s.renders != nil {
		if html, ok := s.renders.Get(cacheKey); ok {
			return c.Send(html.([]byte))
		}
	}

	var buf bytes.Buffer
	if err := widget.RenderModel(&buf, m); err != nil {
		return fmt.Errorf("rendering widget for %s: %w", pair, err)
	}
	if m.View == widget.ViewLoaded && s.renders != nil {
		s.renders.SetWithTTL(cacheKey, buf.Bytes(), int64(buf.Len()), renderTTL)
	}
	return c.Send(buf.Bytes())
}

type trendResponse struct {
	Pair          string     `json:"pair"`
	Label         string     `json:"label"`
	Status        string     `json:"status"`
	View          string     `json:"view"`
	CurrentPrice  *float64   `json:"current_price,omitempty"`
	ChangePercent *float64   `json:"change_percent,omitempty"`
	Change        string     `json:"change,omitempty"`
	IsPositive    bool       `json:"is_positive"`
	Sparkline     string     `json:"sparkline,omitempty"`
	AriaLabel     string     `json:"aria_label"`
	Candles       int        `json:"candles"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func (s *Server) getTrend(c *fiber.Ctx) error {
	pair, err := pairParam(c)
	if err != nil {
		return err
	}
	st, err := s.snapshot(c, pair)
	if err != nil {
		return err
	}

	m := widget.Build(pair, st)
	resp := trendResponse{
		Pair:      pair,
		Label:     m.Pair.Label(),
		Status:    st.Status.String(),
		View:      m.View.String(),
		AriaLabel: m.AriaLabel,
		Candles:   len(st.Data),
	}
	if !st.UpdatedAt.IsZero() {
		resp.UpdatedAt = &st.UpdatedAt
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}

	status := fiber.StatusOK
	switch m.View {
	case widget.ViewError:
		status = fiber.StatusBadGateway
	case widget.ViewLoading:
		status = fiber.StatusAccepted
	case widget.ViewLoaded:
		resp.CurrentPrice = finite(m.Metrics.CurrentPrice)
		resp.ChangePercent = finite(m.Metrics.ChangePercent)
		resp.Change = trend.FormatChange(m.Metrics)
		resp.IsPositive = m.Metrics.IsPositive
		resp.Sparkline = m.Path
		from, to := st.Data.Window()
		resp.From, resp.To = &from, &to
	}

	return c.Status(status).JSON(resp)
}

// finite drops values encoding/json cannot represent.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
