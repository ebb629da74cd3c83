/**
 * Trigger Resolver - Ordered first-match-wins classification
 *
 * Triggers are compiled once at load time into keyword/regex variants;
 * malformed patterns are dropped with a warning instead of being re-tried on
 * every evaluation. Operators rely on trigger order to express priority, so
 * the first structural match always wins. When nothing configured matches,
 * the legacy keyword/regex lists get a chance, and a legacy hit is wrapped in
 * a minimal synthesized trigger so downstream formatting stays uniform.
 */

package watch

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/OGFlash/ark-log-watchdog/internal/config"
)

// LegacyTriggerName names the trigger synthesized for legacy-path matches.
const LegacyTriggerName = "Legacy"

// Trigger is a compiled notification rule.
type Trigger struct {
	Name          string
	MentionMode   string
	MentionCustom string
	Prefix        string
	Suffix        string

	// exactly one of keyword / pattern is set; neither for the synthesized
	// legacy trigger
	keyword string
	pattern *regexp.Regexp
	raw     string
}

// Legacy reports whether this trigger was synthesized by the fallback path.
func (t *Trigger) Legacy() bool {
	return t.keyword == "" && t.pattern == nil
}

// Resolver evaluates the compiled trigger list against entry text.
type Resolver struct {
	triggers []*Trigger
	keywords []string
	patterns []*regexp.Regexp
}

// NewResolver compiles the configured triggers and the legacy keyword/regex
// lists. Invalid regex patterns are dropped with a warning; triggers with an
// empty match pattern are dropped silently, as they can never fire.
func NewResolver(triggers []config.Trigger, keywords []string, patterns []string, log zerolog.Logger) *Resolver {
	r := &Resolver{}
	for _, t := range triggers {
		pat := t.Match
		if pat == "" {
			continue
		}
		compiled := &Trigger{
			Name:          t.Name,
			MentionMode:   t.MentionMode,
			MentionCustom: t.MentionCustom,
			Prefix:        t.Prefix,
			Suffix:        t.Suffix,
			raw:           pat,
		}
		if strings.EqualFold(t.Type, "regex") {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				log.Warn().Str("trigger", t.Name).Str("pattern", pat).Err(err).
					Msg("dropping trigger with bad regex")
				continue
			}
			compiled.pattern = re
		} else {
			compiled.keyword = strings.ToLower(pat)
		}
		r.triggers = append(r.triggers, compiled)
	}

	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			r.keywords = append(r.keywords, strings.ToLower(k))
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn().Str("pattern", p).Err(err).Msg("dropping bad legacy regex")
			continue
		}
		r.patterns = append(r.patterns, re)
	}
	return r
}

// Resolve returns the first matching trigger and the pattern or keyword that
// matched, or (nil, "") when neither the trigger list nor the legacy lists
// match. The caller must not notify, and must not mark dedup state, on a nil
// result.
func (r *Resolver) Resolve(text string) (*Trigger, string) {
	lower := strings.ToLower(text)
	for _, t := range r.triggers {
		if t.pattern != nil {
			if t.pattern.MatchString(text) {
				return t, t.raw
			}
			continue
		}
		if strings.Contains(lower, t.keyword) {
			return t, t.raw
		}
	}

	trimmed := strings.TrimSpace(text)
	lowerTrimmed := strings.ToLower(trimmed)
	for _, kw := range r.keywords {
		if strings.Contains(lowerTrimmed, kw) {
			return legacyTrigger(), kw
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(trimmed) {
			return legacyTrigger(), re.String()
		}
	}
	return nil, ""
}

func legacyTrigger() *Trigger {
	return &Trigger{Name: LegacyTriggerName, MentionMode: "none"}
}

// Mention derives the mention line for a trigger: empty for none, the literal
// token for @here/@everyone, the trimmed custom string verbatim for custom.
// The operator owns the syntactic validity of custom mention syntax.
func Mention(t *Trigger) string {
	if t == nil {
		return ""
	}
	switch mode := strings.ToLower(strings.TrimSpace(t.MentionMode)); mode {
	case "@here", "here":
		return "@here"
	case "@everyone", "everyone":
		return "@everyone"
	case "custom":
		return strings.TrimSpace(t.MentionCustom)
	default:
		return ""
	}
}
