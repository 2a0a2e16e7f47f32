package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicdesk/schedcal/internal/model"
	"github.com/clinicdesk/schedcal/internal/store"
)

var tracer = otel.Tracer("schedcal/persist")

const saveTimeout = 5 * time.Second

// Bridge hydrates the store from the durable slot at startup and writes the
// full collection back after every mutation. A malformed slot payload is
// logged and replaced with an empty collection; it never crashes the store.
type Bridge struct {
	slot   Slot
	seed   Seeder
	logger *slog.Logger
}

func NewBridge(slot Slot, seed Seeder, logger *slog.Logger) *Bridge {
	if seed == nil {
		seed = EmptySeed
	}
	return &Bridge{slot: slot, seed: seed, logger: logger}
}

// Hydrate loads the slot into the store. An absent slot is established with
// the configured seed; a payload that fails to parse resets the slot to an
// empty collection.
func (b *Bridge) Hydrate(ctx context.Context, st *store.Store) error {
	ctx, span := tracer.Start(ctx, "slot.hydrate")
	defer span.End()

	payload, ok, err := b.slot.Load(ctx)
	if err != nil {
		return fmt.Errorf("load slot: %w", err)
	}

	if !ok {
		list := b.seed(time.Now())
		st.ReplaceAll(list)
		b.logger.Info("durable slot absent; seeding", "appointments", len(list))
		return b.write(ctx, list)
	}

	var list []model.Appointment
	if err := json.Unmarshal(payload, &list); err != nil {
		b.logger.Error("malformed slot payload; resetting to empty collection", "err", err)
		list = []model.Appointment{}
		st.ReplaceAll(list)
		return b.write(ctx, list)
	}

	st.ReplaceAll(list)
	span.SetAttributes(attribute.Int("appointments", len(list)))
	return nil
}

// Attach subscribes the bridge to store changes so every mutation is
// re-serialized to the slot. Call after Hydrate.
func (b *Bridge) Attach(st *store.Store) {
	st.Subscribe(func(_ store.Change, snapshot []model.Appointment) {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := b.write(ctx, snapshot); err != nil {
			b.logger.Error("slot save failed", "err", err)
		}
	})
}

func (b *Bridge) write(ctx context.Context, list []model.Appointment) error {
	ctx, span := tracer.Start(ctx, "slot.save",
		trace.WithAttributes(attribute.Int("appointments", len(list))))
	defer span.End()

	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal appointments: %w", err)
	}
	if err := b.slot.Save(ctx, payload); err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}
