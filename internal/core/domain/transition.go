package domain

import (
	"fmt"
	"sort"
	"strings"
)

// TransitionPolicy maps a target status to the statuses it may be entered from.
// Targets absent from the policy are unconstrained; a nil policy allows all.
type TransitionPolicy map[MandateStatus][]MandateStatus

// ParseTransitionPolicy reads "active=pending;revoked=pending,active".
func ParseTransitionPolicy(raw string) (TransitionPolicy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	policy := make(TransitionPolicy)
	for _, rule := range strings.Split(raw, ";") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		target, sources, ok := strings.Cut(rule, "=")
		if !ok {
			return nil, fmt.Errorf("transition rule %q: missing '='", rule)
		}
		to := MandateStatus(strings.TrimSpace(target))
		if !to.Valid() {
			return nil, fmt.Errorf("transition rule %q: unknown status %q", rule, to)
		}
		for _, s := range strings.Split(sources, ",") {
			from := MandateStatus(strings.TrimSpace(s))
			if !from.Valid() {
				return nil, fmt.Errorf("transition rule %q: unknown status %q", rule, from)
			}
			policy[to] = append(policy[to], from)
		}
	}
	return policy, nil
}

// AllowedFrom reports the permitted source statuses for target and whether
// the policy constrains target at all.
func (p TransitionPolicy) AllowedFrom(target MandateStatus) ([]MandateStatus, bool) {
	if p == nil {
		return nil, false
	}
	from, ok := p[target]
	return from, ok
}

func (p TransitionPolicy) String() string {
	targets := make([]string, 0, len(p))
	for to := range p {
		targets = append(targets, string(to))
	}
	sort.Strings(targets)
	rules := make([]string, 0, len(targets))
	for _, to := range targets {
		from := make([]string, 0, len(p[MandateStatus(to)]))
		for _, s := range p[MandateStatus(to)] {
			from = append(from, string(s))
		}
		rules = append(rules, to+"="+strings.Join(from, ","))
	}
	return strings.Join(rules, ";")
}
