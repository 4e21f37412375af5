package trigger

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Policy holds the process-wide trigger and sentence-bound settings. It is
// loaded once and replaced wholesale on settings-change notifications.
type Policy struct {
	CtrlEnterEnabled            bool `json:"ctrl_enter_enabled"`
	DoubleSpaceEnabled          bool `json:"double_space_enabled"`
	AutoAfterPunctuationEnabled bool `json:"auto_after_punctuation_enabled"`
	MinTriggerIntervalMs        int  `json:"min_trigger_interval_ms"`
	MinSentences                int  `json:"min_sentences"`
	MaxSentences                int  `json:"max_sentences"`
}

// DefaultPolicy returns the stock trigger policy.
func DefaultPolicy() Policy {
	return Policy{
		CtrlEnterEnabled:            true,
		DoubleSpaceEnabled:          true,
		AutoAfterPunctuationEnabled: false,
		MinTriggerIntervalMs:        350,
		MinSentences:                1,
		MaxSentences:                2,
	}
}

// MinInterval returns the global rate limit as a duration.
func (p Policy) MinInterval() time.Duration {
	if p.MinTriggerIntervalMs <= 0 {
		return 350 * time.Millisecond
	}
	return time.Duration(p.MinTriggerIntervalMs) * time.Millisecond
}

// Kind identifies how a completion request was initiated.
type Kind string

const (
	// KindManual is an explicit user request; always considered.
	KindManual Kind = "manual"
	// KindCtrlEnter is the modifier+Enter shortcut.
	KindCtrlEnter Kind = "ctrl-enter"
	// KindSpace is a raw space press; two within the double-space window
	// form a trigger.
	KindSpace Kind = "space"
	// KindAutoPunctuation fires after sentence-ending punctuation once the
	// settle delay has elapsed on the host side.
	KindAutoPunctuation Kind = "auto-punctuation"
)

// SettleDelay is how long after sentence punctuation the host should wait
// before sending a KindAutoPunctuation event.
const SettleDelay = 350 * time.Millisecond

// doubleSpaceWindow is the maximum gap between two space presses that counts
// as a double-space trigger.
const doubleSpaceWindow = 350 * time.Millisecond

// Event is one raw input event considered for admission.
type Event struct {
	Kind            Kind
	Site            string
	SurfaceEditable bool
}

// SiteGate answers whether completions are enabled for a site. The default
// is enabled.
type SiteGate interface {
	Enabled(site string) bool
}

// StaticSites is a map-backed SiteGate; absent sites are enabled.
type StaticSites map[string]bool

func (s StaticSites) Enabled(site string) bool {
	enabled, ok := s[site]
	return !ok || enabled
}

// Controller decides whether an input event may start a completion request.
// Rejection is silent: no request is issued and nothing is surfaced.
type Controller struct {
	mu           sync.Mutex
	policy       Policy
	sites        SiteGate
	lastAdmitted time.Time
	lastSpace    time.Time
	now          func() time.Time
	logger       *zap.Logger
}

// NewController creates a trigger controller. sites may be nil, which leaves
// every site enabled.
func NewController(policy Policy, sites SiteGate, logger *zap.Logger) *Controller {
	return &Controller{
		policy: policy,
		sites:  sites,
		now:    time.Now,
		logger: logger,
	}
}

// SetPolicy replaces the active policy.
func (c *Controller) SetPolicy(p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p
}

// Policy returns the active policy.
func (c *Controller) Policy() Policy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// Admit applies the admission rules in order: trigger-kind consideration,
// the global rate limit, and the surface/site gates. On admission the
// timestamp is recorded for the next rate-limit check.
func (c *Controller) Admit(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	switch ev.Kind {
	case KindManual:
		// always considered
	case KindCtrlEnter:
		if !c.policy.CtrlEnterEnabled {
			return false
		}
	case KindSpace:
		if !c.policy.DoubleSpaceEnabled {
			return false
		}
		prev := c.lastSpace
		c.lastSpace = now
		if prev.IsZero() || now.Sub(prev) > doubleSpaceWindow {
			return false
		}
	case KindAutoPunctuation:
		if !c.policy.AutoAfterPunctuationEnabled {
			return false
		}
	default:
		return false
	}

	// Global rate limit, independent of trigger kind.
	if !c.lastAdmitted.IsZero() && now.Sub(c.lastAdmitted) < c.policy.MinInterval() {
		return false
	}

	if !ev.SurfaceEditable {
		return false
	}
	if c.sites != nil && !c.sites.Enabled(ev.Site) {
		c.logger.Debug("completions disabled for site", zap.String("site", ev.Site))
		return false
	}

	c.lastAdmitted = now
	return true
}
