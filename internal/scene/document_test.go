/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"testing"
)

func mustElement(t *testing.T, k Kind, left, top float64) Element {
	t.Helper()
	e, err := NewElement(k, left, top)
	if err != nil {
		t.Fatalf("NewElement(%s): %v", k, err)
	}
	return e
}

func TestNewElementDefaults(t *testing.T) {
	e := mustElement(t, KindNumDisplay, 10, 20)
	if e.ID == "" || e.ScaleX != 1 || e.ScaleY != 1 {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if b := e.Bounds(); b.Left != 10 || b.Top != 20 || b.Width != 80 || b.Height != 30 {
		t.Fatalf("bounds = %+v", b)
	}
	if _, err := NewElement(KindGroup, 0, 0); err == nil {
		t.Fatalf("groups are created by grouping, not directly")
	}
	if _, err := ParseKind("slider"); err == nil {
		t.Fatalf("unknown kind accepted")
	}
	if k, err := ParseKind("numInput"); err != nil || k != KindNumInput {
		t.Fatalf("ParseKind(numInput) = %v, %v", k, err)
	}
}

func TestBindingsFollowDeclaredPorts(t *testing.T) {
	led := mustElement(t, KindLED, 0, 0)
	toggle := mustElement(t, KindToggle, 0, 0)
	if err := led.Bind(false, "value", "pump.on"); err != nil {
		t.Fatalf("bind led input: %v", err)
	}
	if err := toggle.Bind(true, "state", "pump.on"); err != nil {
		t.Fatalf("bind toggle output: %v", err)
	}
	if err := toggle.Bind(false, "state", "x"); !errors.Is(err, ErrUnknownPort) {
		t.Fatalf("toggle has no inputs, got %v", err)
	}

	d := NewDocument("plant")
	for _, e := range []Element{led, toggle} {
		if err := d.Add(e); err != nil {
			t.Fatal(err)
		}
	}
	sig := d.Signals()["pump.on"]
	if len(sig) != 2 {
		t.Fatalf("expected two ports on pump.on, got %v", sig)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}

	if err := toggle.Bind(true, "state", ""); err != nil || len(toggle.Bindings.Outputs) != 0 {
		t.Fatalf("empty signal should unbind: %v %v", err, toggle.Bindings.Outputs)
	}
}

func TestValidateRejectsBrokenDocuments(t *testing.T) {
	a := mustElement(t, KindText, 0, 0)
	cases := map[string]func(d *Document){
		"duplicate id": func(d *Document) { d.Elements = append(d.Elements, a, a) },
		"unknown kind": func(d *Document) {
			b := a
			b.Kind = "dial"
			d.Elements = append(d.Elements, b)
		},
		"bad port": func(d *Document) {
			b := a
			b.Bindings.Inputs = map[string]string{"value": "s"}
			d.Elements = append(d.Elements, b)
		},
		"empty group": func(d *Document) {
			d.Elements = append(d.Elements, Element{ID: "g", Kind: KindGroup})
		},
	}
	for name, mutate := range cases {
		d := NewDocument("x")
		mutate(&d)
		if err := d.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDocumentAddRemoveLookup(t *testing.T) {
	d := NewDocument("x")
	e := mustElement(t, KindImage, 0, 0)
	if err := d.Add(e); err != nil {
		t.Fatal(err)
	}
	if err := d.Add(e); err == nil {
		t.Fatalf("duplicate add accepted")
	}
	if d.Lookup(e.ID) == nil {
		t.Fatalf("lookup failed")
	}
	if err := d.Remove(e.ID); err != nil || len(d.Elements) != 0 {
		t.Fatalf("remove failed: %v", err)
	}
	if err := d.Remove(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
