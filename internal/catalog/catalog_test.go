package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
)

const sampleDocument = `
pieces:
  - name: void
    weight: 1
    pos_x: {id: air, symmetric: true}
    neg_x: {id: air, symmetric: true}
    pos_z: {id: air, symmetric: true}
    neg_z: {id: air, symmetric: true}
    pos_y: {id: air, rotation: any}
    neg_y: {id: air, rotation: any}
  - name: ramp
    weight: 2.5
    pos_x: {id: side}
    neg_x: {id: side, flipped: true}
    pos_z: {id: slope}
    neg_z: {id: back, symmetric: true}
    pos_y: {id: air, rotation: 1}
    neg_y: {id: solid, rotation: "0"}
    variants: [0, 2]
    exclusions: [void]
    color: "#aabbcc"
  - name: lamp
    weight: 0.5
    pos_y: {id: air}
    neg_y: {id: air}
    exclusions: [ramp]
`

func TestParseExpandsVariantsAndResolvesExclusions(t *testing.T) {
	cat, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cat.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}

	wantNames := []string{"void", "ramp_r0", "ramp_r2", "lamp"}
	for i, name := range wantNames {
		if got := cat.Piece(i).Name; got != name {
			t.Fatalf("piece %d name = %q, want %q", i, got, name)
		}
	}

	r2 := cat.Piece(2)
	if r2.Rotation != 2 || r2.Base != "ramp" {
		t.Fatalf("ramp_r2 = rotation %d base %q", r2.Rotation, r2.Base)
	}
	if !cat.Piece(0).PosY.Any() {
		t.Fatal("void top socket should match any rotation")
	}
	if cat.Piece(1).NegY.Rotation != 0 || cat.Piece(1).PosY.Rotation != 1 {
		t.Fatalf("ramp vertical tags = %+v %+v", cat.Piece(1).PosY, cat.Piece(1).NegY)
	}

	lamp, _ := cat.Index("lamp")
	for _, variant := range []string{"ramp_r0", "ramp_r2"} {
		idx, ok := cat.Index(variant)
		if !ok {
			t.Fatalf("missing %s", variant)
		}
		if !cat.Excludes(lamp, idx) {
			t.Fatalf("lamp should exclude %s through its base name", variant)
		}
		if !cat.Excludes(idx, VoidIndex) {
			t.Fatalf("%s should exclude void", variant)
		}
		if cat.Excludes(idx, lamp) {
			t.Fatalf("%s must not inherit lamp's exclusion", variant)
		}
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing name",
			doc:     "pieces:\n  - weight: 1\n",
			wantErr: "pieces[0].name must be set",
		},
		{
			name:    "non positive weight",
			doc:     "pieces:\n  - name: a\n    weight: 0\n",
			wantErr: "pieces[0].weight must be positive",
		},
		{
			name:    "rotation out of range",
			doc:     "pieces:\n  - name: a\n    weight: 1\n    rotation: 4\n",
			wantErr: "pieces[0].rotation must be within 0..3",
		},
		{
			name:    "duplicate name",
			doc:     "pieces:\n  - name: a\n    weight: 1\n  - name: a\n    weight: 1\n",
			wantErr: `pieces[1].name "a" is duplicated`,
		},
		{
			name:    "unknown exclusion",
			doc:     "pieces:\n  - name: a\n    weight: 1\n    exclusions: [ghost]\n",
			wantErr: `pieces[0].exclusions references unknown piece "ghost"`,
		},
		{
			name:    "bad color",
			doc:     "pieces:\n  - name: a\n    weight: 1\n    color: red\n",
			wantErr: "pieces[0].color must be a hex RGB value",
		},
		{
			name:    "bad rotation tag",
			doc:     "pieces:\n  - name: a\n    weight: 1\n    pos_y: {id: x, rotation: sideways}\n",
			wantErr: `rotation tag "sideways"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("unexpected error: got %q want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	_, err := Parse([]byte("pieces: []\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestOutwardFollowsRotationTable(t *testing.T) {
	base := Piece{
		Name:   "probe",
		Weight: 1,
		PosX:   HorizontalSocket{ID: "px"},
		NegX:   HorizontalSocket{ID: "nx"},
		PosZ:   HorizontalSocket{ID: "pz"},
		NegZ:   HorizontalSocket{ID: "nz"},
	}
	want := map[grid.Direction][4]string{
		grid.PosZ: {"pz", "nx", "nz", "px"},
		grid.NegZ: {"nz", "px", "pz", "nx"},
		grid.PosX: {"px", "pz", "nx", "nz"},
		grid.NegX: {"nx", "nz", "px", "pz"},
	}
	for dir, ids := range want {
		for r := 0; r < 4; r++ {
			p := base
			p.Rotation = r
			if got := p.Outward(dir).ID; got != ids[r] {
				t.Fatalf("rotation %d %v: got %q want %q", r, dir, got, ids[r])
			}
		}
	}
}

func TestVerticalTagAddsRotation(t *testing.T) {
	p := Piece{
		Rotation: 3,
		PosY:     VerticalSocket{ID: "a", Rotation: 2},
		NegY:     VerticalSocket{ID: "b", Rotation: AnyRotation},
	}
	if got := p.VerticalTag(grid.PosY); got != 1 {
		t.Fatalf("top tag = %d, want (2+3)%%4 = 1", got)
	}
	if got := p.VerticalTag(grid.NegY); got != AnyRotation {
		t.Fatalf("bottom tag = %d, want AnyRotation", got)
	}
	p.MapTileRotation = 2
	if got := p.EffectiveMapTileRotation(); got != 1 {
		t.Fatalf("map tile rotation = %d, want 1", got)
	}
}

func TestHorizontalSocketConnects(t *testing.T) {
	tests := []struct {
		name string
		a, b HorizontalSocket
		want bool
	}{
		{"symmetric pair", HorizontalSocket{ID: "w", Symmetric: true}, HorizontalSocket{ID: "w", Symmetric: true}, true},
		{"different ids", HorizontalSocket{ID: "w", Symmetric: true}, HorizontalSocket{ID: "v", Symmetric: true}, false},
		{"mirror pair", HorizontalSocket{ID: "d"}, HorizontalSocket{ID: "d", Flipped: true}, true},
		{"same handedness", HorizontalSocket{ID: "d", Flipped: true}, HorizontalSocket{ID: "d", Flipped: true}, false},
		{"half symmetric", HorizontalSocket{ID: "d", Symmetric: true}, HorizontalSocket{ID: "d"}, false},
		{"half symmetric mirrored", HorizontalSocket{ID: "d", Symmetric: true}, HorizontalSocket{ID: "d", Flipped: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Connects(tt.b); got != tt.want {
				t.Fatalf("Connects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	if got := cat.Len(); got != 8 {
		t.Fatalf("default catalog size = %d, want 8", got)
	}
	if cat.Piece(VoidIndex).Name != "void" {
		t.Fatalf("index 0 = %q, want void", cat.Piece(VoidIndex).Name)
	}
	pillar, _ := cat.Index("pillar")
	if !cat.Excludes(pillar, pillar) {
		t.Fatal("pillar should exclude itself")
	}
	for i, w := range cat.Weights() {
		if w <= 0 {
			t.Fatalf("piece %d weight %v", i, w)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cat := Default()
	data, err := Marshal(cat)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("parse marshalled catalog: %v\n%s", err, data)
	}
	if again.Len() != cat.Len() {
		t.Fatalf("round trip size %d, want %d", again.Len(), cat.Len())
	}
	stairs, _ := again.Index("stairs_r3")
	if p := again.Piece(stairs); p.Rotation != 3 || p.NegY.Rotation != 0 || !p.PosY.Any() {
		t.Fatalf("stairs_r3 after round trip = %+v", p)
	}
}

func TestAddBumpsRevision(t *testing.T) {
	cat := Default()
	before := cat.Revision()
	if err := cat.Add(Piece{Name: "crate", Weight: 1, Variants: []int{0, 1}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if cat.Revision() == before {
		t.Fatal("revision did not change after Add")
	}
	if _, ok := cat.Index("crate_r1"); !ok {
		t.Fatal("added variant missing")
	}
	if err := cat.Add(Piece{Name: "rock", Weight: 1}); err == nil {
		t.Fatal("adding a duplicate name should fail")
	}
}

func TestFetchUsesLocalFilesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pieces.yaml")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	got, err := Fetch(context.Background(), path, filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != path {
		t.Fatalf("Fetch returned %q, want %q", got, path)
	}
}

func TestLoadSourceDownloadsOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()

	cat, err := LoadSource(context.Background(), srv.URL+"/pieces.yaml", t.TempDir())
	if err != nil {
		t.Fatalf("load source: %v", err)
	}
	if cat.Len() != 4 {
		t.Fatalf("downloaded catalog size = %d, want 4", cat.Len())
	}
}
