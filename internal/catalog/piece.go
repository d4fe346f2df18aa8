package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/grid"
)

// AnyRotation marks a vertical socket that matches every rotation tag.
const AnyRotation = -1

// HorizontalSocket is a connector on one of the four side faces of a piece.
type HorizontalSocket struct {
	ID        string `yaml:"id" json:"id"`
	Symmetric bool   `yaml:"symmetric,omitempty" json:"symmetric,omitempty"`
	Flipped   bool   `yaml:"flipped,omitempty" json:"flipped,omitempty"`
}

// Connects reports whether the outward socket a can face the inward socket b.
// Symmetric sockets join any symmetric socket with the same id; asymmetric
// sockets only join their mirror image.
func (a HorizontalSocket) Connects(b HorizontalSocket) bool {
	if a.ID != b.ID {
		return false
	}
	return (a.Symmetric && b.Symmetric) || a.Flipped != b.Flipped
}

// VerticalSocket is a connector on the top or bottom face of a piece.
type VerticalSocket struct {
	ID       string `json:"id"`
	Rotation int    `json:"rotation"`
}

// Any reports whether the socket ignores rotation tags.
func (s VerticalSocket) Any() bool {
	return s.Rotation < 0
}

func (s *VerticalSocket) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ID       string `yaml:"id"`
		Rotation string `yaml:"rotation"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.ID = raw.ID
	tag, err := parseRotationTag(raw.Rotation)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	s.Rotation = tag
	return nil
}

func (s VerticalSocket) MarshalYAML() (any, error) {
	out := map[string]any{"id": s.ID}
	if s.Any() {
		out["rotation"] = "any"
	} else {
		out["rotation"] = s.Rotation
	}
	return out, nil
}

func parseRotationTag(value string) (int, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "":
		return 0, nil
	case "any", "*":
		return AnyRotation, nil
	}
	tag, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("rotation tag %q must be an integer or \"any\"", value)
	}
	if tag < 0 {
		return AnyRotation, nil
	}
	return tag, nil
}

// Piece is one catalog entry. A rotation variant is its own entry; Base names
// the geometry it was derived from.
type Piece struct {
	Name     string  `yaml:"name" json:"name"`
	Base     string  `yaml:"base,omitempty" json:"base,omitempty"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Rotation int     `yaml:"rotation" json:"rotation"`

	PosX HorizontalSocket `yaml:"pos_x" json:"posX"`
	NegX HorizontalSocket `yaml:"neg_x" json:"negX"`
	PosZ HorizontalSocket `yaml:"pos_z" json:"posZ"`
	NegZ HorizontalSocket `yaml:"neg_z" json:"negZ"`
	PosY VerticalSocket   `yaml:"pos_y" json:"posY"`
	NegY VerticalSocket   `yaml:"neg_y" json:"negY"`

	Exclusions []string `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
	// Variants expands the entry into one piece per listed rotation on load.
	Variants []int `yaml:"variants,omitempty" json:"-"`

	Color           string         `yaml:"color,omitempty" json:"color,omitempty"`
	MapTile         int            `yaml:"map_tile,omitempty" json:"mapTile,omitempty"`
	MapTileRotation int            `yaml:"map_tile_rotation,omitempty" json:"mapTileRotation,omitempty"`
	Payload         map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// rotatedFace[d][r] is the base face that points along d once the piece is
// turned r quarter turns about the vertical axis.
var rotatedFace = [grid.DirectionCount][4]grid.Direction{
	grid.PosZ: {grid.PosZ, grid.NegX, grid.NegZ, grid.PosX},
	grid.NegZ: {grid.NegZ, grid.PosX, grid.PosZ, grid.NegX},
	grid.PosX: {grid.PosX, grid.PosZ, grid.NegX, grid.NegZ},
	grid.NegX: {grid.NegX, grid.NegZ, grid.PosX, grid.PosZ},
}

// Face returns the unrotated socket declared for a horizontal face.
func (p *Piece) Face(dir grid.Direction) HorizontalSocket {
	switch dir {
	case grid.PosX:
		return p.PosX
	case grid.NegX:
		return p.NegX
	case grid.PosZ:
		return p.PosZ
	case grid.NegZ:
		return p.NegZ
	default:
		return HorizontalSocket{}
	}
}

// Outward returns the socket facing along dir after rotation.
func (p *Piece) Outward(dir grid.Direction) HorizontalSocket {
	return p.Face(rotatedFace[dir][p.Rotation&3])
}

// Vertical returns the top (PosY) or bottom (NegY) socket.
func (p *Piece) Vertical(dir grid.Direction) VerticalSocket {
	if dir == grid.PosY {
		return p.PosY
	}
	return p.NegY
}

// VerticalTag returns the rotation tag of the top or bottom socket with the
// piece's own rotation added, or AnyRotation.
func (p *Piece) VerticalTag(dir grid.Direction) int {
	s := p.Vertical(dir)
	if s.Any() {
		return AnyRotation
	}
	return (s.Rotation + p.Rotation) % 4
}

// EffectiveMapTileRotation is the minimap tile orientation for this entry.
func (p *Piece) EffectiveMapTileRotation() int {
	return (p.Rotation + p.MapTileRotation) % 4
}

func (p *Piece) clone() Piece {
	out := *p
	if p.Exclusions != nil {
		out.Exclusions = append([]string(nil), p.Exclusions...)
	}
	if p.Variants != nil {
		out.Variants = append([]int(nil), p.Variants...)
	}
	if p.Payload != nil {
		out.Payload = make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			out.Payload[k] = v
		}
	}
	return out
}
