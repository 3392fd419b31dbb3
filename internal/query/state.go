package query

import (
	"time"

	"github.com/Alias1177/TokenTrend/models"
)

// TrendTag is the logical query name every trend entry is keyed under.
const TrendTag = "token-trend"

// Key identifies one cache entry. Distinct pairs never share an entry.
type Key struct {
	Tag  string
	Pair string
}

func trendKey(pair string) Key { return Key{Tag: TrendTag, Pair: pair} }

func (k Key) String() string { return k.Tag + "/" + k.Pair }

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "pending"
	}
}

// State is a snapshot of one entry as seen by a consumer.
// On error the previously fetched Data, if any, is kept.
type State struct {
	Pair       string
	Data       models.TrendSeries
	Status     Status
	Err        error
	UpdatedAt  time.Time
	IsFetching bool
}

// IsLoading reports that no data has arrived yet.
func (s State) IsLoading() bool { return s.Status == StatusPending }

func (s State) IsError() bool { return s.Status == StatusError }
