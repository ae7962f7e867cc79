package etl

import (
	"strings"

	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/BartekS5/zabbix-audit/pkg/utils"
)

// EventTerminator ends every transmitted event.
const EventTerminator = " \r\n"

// Transformer renders audit records into the sink's line format.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// FormatLine renders the human-readable line, without terminator:
//
//	date='..', account='..', ip='..', action='..', type='..', name='..'[, old='..', new='..']
//
// The old/new pair is present only when the record carries an old value.
func (t *Transformer) FormatLine(rec models.AuditRecord) string {
	var b strings.Builder
	writeField(&b, "date", utils.FormatTimestamp(rec.Timestamp))
	b.WriteString(", ")
	writeField(&b, "account", utils.RenderString(rec.HostName))
	b.WriteString(", ")
	writeField(&b, "ip", utils.RenderInt(rec.ItemID))
	b.WriteString(", ")
	writeField(&b, "action", utils.RenderDecimal(rec.Value))
	b.WriteString(", ")
	writeField(&b, "type", utils.RenderString(rec.Unit))
	b.WriteString(", ")
	writeField(&b, "name", utils.RenderInt(rec.ItemType))

	if rec.OldValue != nil {
		b.WriteString(", ")
		writeField(&b, "old", *rec.OldValue)
		b.WriteString(", ")
		writeField(&b, "new", utils.RenderString(rec.NewValue))
	}
	return b.String()
}

// Event is the raw bytes transmitted for rec.
func (t *Transformer) Event(rec models.AuditRecord) []byte {
	return []byte(t.FormatLine(rec) + EventTerminator)
}

func writeField(b *strings.Builder, key, val string) {
	b.WriteString(key)
	b.WriteString("='")
	b.WriteString(val)
	b.WriteString("'")
}
