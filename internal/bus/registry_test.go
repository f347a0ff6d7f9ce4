package bus_test

import (
	"testing"

	"pagebuilder/internal/bus"
	"pagebuilder/internal/domain"
)

func TestRegistry_PublishSubscribe(t *testing.T) {
	r := bus.NewRegistry()
	var got []any
	cancel := r.Subscribe("Style", func(_ string, v bus.SharedValue) { got = append(got, v.Value) })

	r.Publish("Style", "Modern", "a")
	r.Publish("Color", "Red", "b")
	cancel()
	r.Publish("Style", "Classic", "a")

	if len(got) != 1 || got[0] != "Modern" {
		t.Errorf("notifications = %v, want [Modern]", got)
	}
	v, ok := r.Lookup("Style")
	if !ok || v.Value != "Classic" || v.Source != "a" {
		t.Errorf("Lookup = %+v %v", v, ok)
	}

	r.Clear("Style")
	if _, ok := r.Lookup("Style"); ok {
		t.Error("Clear should drop the value")
	}
	r.Reset()
	if len(r.Snapshot()) != 0 {
		t.Error("Reset should drop every value")
	}
}

func TestByNameSynchronization(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, domain.KindPropertyFilter, domain.Properties{"propertyName": "Style"})
	b := f.add(t, domain.KindPropertyFilter, domain.Properties{"propertyName": "Style"})

	f.doc, _ = f.bus.Emit(f.doc, a, bus.Payload{Value: "Modern"}, nil)

	got, err := bus.EffectiveValue(f.doc, f.bus.Registry(), b)
	if err != nil {
		t.Fatalf("EffectiveValue: %v", err)
	}
	if got.Value != "Modern" || got.Source != bus.SourceShared {
		t.Errorf("effective = %+v, want Modern from shared", got)
	}
}

func TestEffectiveValue_Priority(t *testing.T) {
	f := newFixture(t)
	src := f.add(t, domain.KindPropertyFilter, domain.Properties{"propertyName": "Color"})
	b := f.add(t, domain.KindPropertyFilter, domain.Properties{"propertyName": "Color", "selectedValue": "Blue"})
	reg := f.bus.Registry()

	got, _ := bus.EffectiveValue(f.doc, reg, b)
	if got.Source != bus.SourceStored || got.Value != "Blue" {
		t.Errorf("stored: %+v", got)
	}

	reg.Publish("Color", "Green", "elsewhere")
	got, _ = bus.EffectiveValue(f.doc, reg, b)
	if got.Source != bus.SourceShared || got.Value != "Green" {
		t.Errorf("shared: %+v", got)
	}

	f.connect(t, src, b, domain.ConnectionFilter, domain.ConnectionOptions{})
	f.doc, _ = f.bus.Emit(f.doc, src, bus.Payload{Value: "Red"}, nil)
	reg.Publish("Color", "Green", "elsewhere")
	got, _ = bus.EffectiveValue(f.doc, reg, b)
	if got.Source != bus.SourceConnection || got.Value != "Red" {
		t.Errorf("connection: %+v", got)
	}

	reg.SetPending(b, "Yellow")
	got, _ = bus.EffectiveValue(f.doc, reg, b)
	if got.Source != bus.SourceLocal || got.Value != "Yellow" {
		t.Errorf("local: %+v", got)
	}

	if _, err := bus.EffectiveValue(f.doc, reg, "ghost"); err == nil {
		t.Error("expected error for unknown element")
	}
}
