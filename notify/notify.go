/*
Package notify delivers "new requisition" announcements.

PURPOSE:
  Requisition creation must never wait on or fail because of a chat
  service. The Dispatcher queues events and a background worker hands them
  to the configured Notifier (Telegram, Kafka, or both via Multi). Every
  event gets exactly one attempt; failures are logged and counted.

SEE ALSO:
  - dispatcher.go: Background queue
  - telegram.go: Bot API sender
  - kafka.go: Event sink for downstream consumers
*/
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/supply-ledger/requisition"
)

// Notifier is satisfied by every sink in this package and by
// requisition.Notifier.
type Notifier = requisition.Notifier

// MessageTimeLayout renders the requisition date in announcements.
const MessageTimeLayout = "02.01.2006, 15:04:05"

// TestMessage is sent by the settings "test" action.
const TestMessage = "✅ <b>Sinov Xabari</b>\n\nTaminotManager tizimi Telegram boti muvaffaqiyatli ulandi!"

// htmlEscaper covers the characters Telegram's HTML parse mode reserves.
// Quotes stay literal.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// FormatMessage renders the HTML announcement for a new requisition.
// User-provided text is escaped.
func FormatMessage(r requisition.Requisition) string {
	comment := r.Comment
	if comment == "" {
		comment = "Yo'q"
	}

	var b strings.Builder
	b.WriteString("📢 <b>Yangi Talabnoma</b>\n\n")
	fmt.Fprintf(&b, "🏢 <b>Tashkilot:</b> %s\n", htmlEscaper.Replace(r.RequesterName))
	fmt.Fprintf(&b, "📦 <b>Mahsulot:</b> %s\n", htmlEscaper.Replace(r.ProductName))
	fmt.Fprintf(&b, "⚖️ <b>Hajmi:</b> %s\n", htmlEscaper.Replace(orDash(r.Variant)))
	fmt.Fprintf(&b, "🩸 <b>Guruh:</b> %s\n", htmlEscaper.Replace(orDash(r.BloodGroup)))
	fmt.Fprintf(&b, "🔢 <b>Soni:</b> %d %s\n", r.Quantity, htmlEscaper.Replace(r.Unit))
	fmt.Fprintf(&b, "📅 <b>Sana:</b> %s\n", r.CreatedAt.In(time.Local).Format(MessageTimeLayout))
	fmt.Fprintf(&b, "📝 <b>Izoh:</b> %s", htmlEscaper.Replace(comment))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// MULTI
// =============================================================================

// Multi fans a requisition out to several notifiers. All are attempted;
// the joined error is returned.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r requisition.Requisition) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, requisition.Requisition) error { return nil }
