package classify

import (
	"context"
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/servicedesk/agent/contract"
)

// rule is one entry of the ordered fallback table. The first rule whose
// keyword appears in the lowercased message decides the intent.
type rule struct {
	intent   contractx.Intent
	keywords []string
}

// Ordering matters: repair requests often mention symptoms too, so intake
// keywords are checked before troubleshooting ones.
var defaultRules = []rule{
	{intent: contractx.IntentCheckStatus, keywords: []string{
		"status", "ticket-", "where is my ticket", "any update on",
	}},
	{intent: contractx.IntentCreateTicket, keywords: []string{
		"create a ticket", "create ticket", "repair request", "i need a repair",
		"repair", "ticket", "fix",
	}},
	{intent: contractx.IntentInventoryLookup, keywords: []string{
		"in stock", "stock", "price", "how much", "availability", "do you have",
	}},
	{intent: contractx.IntentTroubleshoot, keywords: []string{
		"doesn't work", "not working", "won't turn on", "paper jam", "overheat",
		"no power", "no display", "not printing", "won't boot", "freezes",
	}},
}

var (
	ticketIDPattern     = regexp.MustCompile(`(?i)(TICKET[- ]?[0-9]{2,})`)
	bareTicketIDPattern = regexp.MustCompile(`(?i)ticket\s+#?([0-9]{2,})`)
	devicePattern       = regexp.MustCompile(`(?i)(dell\s+xps(?:\s*\d+\w*)?|thinkpad(?:\s+\w+\d+\w*)?|macbook(?:\s+(?:pro|air))?|hp\s+laserjet(?:\s*\d+\w*)?|samsung\s+galaxy(?:\s+\w+)?|iphone(?:\s*\d+\w*)?|laptop|printer|desktop|cctv)`)
)

// RuleClassifier is the deterministic, fully local fallback. It is total:
// every message yields an intent (possibly unknown) and it never fails.
type RuleClassifier struct {
	rules []rule
}

var _ contractx.Classifier = (*RuleClassifier)(nil)

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: defaultRules}
}

func (c *RuleClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.ClassifyResult, error) {
	message := strings.ToLower(req.Message)
	allowed := allowedSet(req.AllowedIntents)

	intent := contractx.IntentUnknown
	for _, r := range c.rules {
		if !allowed[r.intent] {
			continue
		}
		if containsAny(message, r.keywords) {
			intent = r.intent
			break
		}
	}

	return contractx.ClassifyResult{
		Intent: intent,
		Slots:  extractSlots(intent, req.Message),
	}, nil
}

func containsAny(message string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

func allowedSet(intents []contractx.Intent) map[contractx.Intent]bool {
	set := make(map[contractx.Intent]bool, len(intents))
	for _, in := range intents {
		set[in] = true
	}
	return set
}

func extractSlots(intent contractx.Intent, message string) map[string]string {
	slots := map[string]string{}
	switch intent {
	case contractx.IntentCheckStatus:
		if id := ExtractTicketID(message); id != "" {
			slots[contractx.SlotTicketID] = id
		}
	case contractx.IntentCreateTicket:
		// A message that names the device usually describes the problem too
		// ("My Dell XPS 13 won't boot"); a bare request ("I need a repair")
		// carries neither, and the intake flow prompts for both.
		if device := extractDevice(message); device != "" {
			slots[contractx.SlotDevice] = device
			slots[contractx.SlotIssue] = strings.TrimSpace(message)
		}
	case contractx.IntentInventoryLookup:
		slots[contractx.SlotQuery] = strings.TrimSpace(message)
	}
	if len(slots) == 0 {
		return nil
	}
	return slots
}

// ExtractTicketID normalizes "TICKET 1234", "ticket-1234", and bare
// "ticket 1234" forms to the canonical TICKET-N id.
func ExtractTicketID(message string) string {
	if m := ticketIDPattern.FindString(message); m != "" {
		id := strings.ToUpper(strings.TrimSpace(m))
		return strings.ReplaceAll(id, " ", "-")
	}
	if m := bareTicketIDPattern.FindStringSubmatch(message); len(m) == 2 {
		return "TICKET-" + m[1]
	}
	return ""
}

func extractDevice(message string) string {
	return strings.TrimSpace(devicePattern.FindString(message))
}
