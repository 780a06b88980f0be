package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/db/ent/schema/utils"
)

type ProcessingLog struct{ ent.Schema }

func (ProcessingLog) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "processing_logs"},
	}
}

func (ProcessingLog) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.Time("timestamp").Default(time.Now).Immutable(),
		field.String("message").NotEmpty(),
		field.String("type").
			Validate(utils.EnumValidator(constants.LogTypes...)),
		// system-level entries have no invoice
		field.UUID("invoice_id", uuid.UUID{}).Optional().Nillable(),
	}
}

func (ProcessingLog) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("invoice", Invoice.Type).
			Ref("logs").
			Field("invoice_id").
			Unique(),
	}
}

func (ProcessingLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("invoice_id", "timestamp"),
	}
}
