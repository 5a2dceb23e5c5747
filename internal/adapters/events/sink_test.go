package events

import (
	"time"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
)

func testEvent() domain.ApiEvent {
	merchant := "m1"
	return domain.NewApiEvent(domain.ApiEventRecord{
		TenantID:   "public",
		MerchantID: &merchant,
		APIFlow:    "MandatesRetrieve",
		RequestID:  "req-1",
		CreatedAt:  time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		Latency:    15 * time.Millisecond,
		StatusCode: 200,
		AuthType:   domain.AuthType{Kind: domain.AuthKindAPIKey, KeyID: "dashboard"},
		Request:    `{"mandate_id":"man_1"}`,
		EventType:  domain.MandateEvent{MandateID: "man_1"},
		HTTPMethod: "GET",
		URLPath:    "/v1/mandates/man_1",
	})
}
