package canvas

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"iconforge/internal/geometry"
)

type segOp byte

const (
	opMove  segOp = 'M'
	opLine  segOp = 'L'
	opQuad  segOp = 'Q'
	opCubic segOp = 'C'
	opClose segOp = 'Z'
)

// points returns how many points the op carries.
func (o segOp) points() int {
	switch o {
	case opMove, opLine:
		return 1
	case opQuad:
		return 2
	case opCubic:
		return 3
	default:
		return 0
	}
}

// segment is one path command in host coordinates.
type segment struct {
	op  segOp
	pts [3]geometry.Point
}

func (s segment) transformed(t geometry.Affine) segment {
	out := s
	for i := 0; i < s.op.points(); i++ {
		out.pts[i] = t.Apply(s.pts[i])
	}
	return out
}

func segmentBounds(segs []segment) (geometry.Rect, bool) {
	var r geometry.Rect
	found := false
	for _, s := range segs {
		for i := 0; i < s.op.points(); i++ {
			p := s.pts[i]
			if !found {
				r = geometry.Rect{Left: p.X, Right: p.X, Top: p.Y, Bottom: p.Y}
				found = true
				continue
			}
			r = r.Union(geometry.Rect{Left: p.X, Right: p.X, Top: p.Y, Bottom: p.Y})
		}
	}
	return r, found
}

// parsePathData reads SVG-style path data in page coordinates (Y down) and
// returns host-coordinate segments. Supported commands are M L H V Q C Z in
// absolute and relative form.
func parsePathData(data string) ([]segment, error) {
	tokens, err := tokenizePath(data)
	if err != nil {
		return nil, err
	}
	var (
		segs    []segment
		cmd     byte
		cur     geometry.Point
		start   geometry.Point
		pos     int
		started bool
	)
	next := func() (float64, error) {
		if pos >= len(tokens) || tokens[pos].isCmd {
			return 0, fmt.Errorf("path data: command %c needs more numbers", cmd)
		}
		v := tokens[pos].num
		pos++
		return v, nil
	}
	point := func(relative bool) (geometry.Point, error) {
		x, err := next()
		if err != nil {
			return geometry.Point{}, err
		}
		y, err := next()
		if err != nil {
			return geometry.Point{}, err
		}
		if relative {
			return geometry.Point{X: cur.X + x, Y: cur.Y + y}, nil
		}
		return geometry.Point{X: x, Y: y}, nil
	}
	// cur and start are tracked in page coordinates; emit flips Y.
	emit := func(op segOp, pts ...geometry.Point) {
		s := segment{op: op}
		for i, p := range pts {
			s.pts[i] = geometry.Point{X: p.X, Y: -p.Y}
		}
		segs = append(segs, s)
	}
	for pos < len(tokens) {
		if tokens[pos].isCmd {
			cmd = tokens[pos].cmd
			pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data must start with a command")
		}
		relative := unicode.IsLower(rune(cmd))
		switch unicode.ToUpper(rune(cmd)) {
		case 'M':
			p, err := point(relative)
			if err != nil {
				return nil, err
			}
			emit(opMove, p)
			cur, start, started = p, p, true
			// Extra coordinate pairs after a move are implicit line-tos.
			if relative {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L':
			p, err := point(relative)
			if err != nil {
				return nil, err
			}
			emit(opLine, p)
			cur = p
		case 'H':
			x, err := next()
			if err != nil {
				return nil, err
			}
			if relative {
				x += cur.X
			}
			cur = geometry.Point{X: x, Y: cur.Y}
			emit(opLine, cur)
		case 'V':
			y, err := next()
			if err != nil {
				return nil, err
			}
			if relative {
				y += cur.Y
			}
			cur = geometry.Point{X: cur.X, Y: y}
			emit(opLine, cur)
		case 'Q':
			c1, err := point(relative)
			if err != nil {
				return nil, err
			}
			p, err := point(relative)
			if err != nil {
				return nil, err
			}
			emit(opQuad, c1, p)
			cur = p
		case 'C':
			c1, err := point(relative)
			if err != nil {
				return nil, err
			}
			c2, err := point(relative)
			if err != nil {
				return nil, err
			}
			p, err := point(relative)
			if err != nil {
				return nil, err
			}
			emit(opCubic, c1, c2, p)
			cur = p
		case 'Z':
			segs = append(segs, segment{op: opClose})
			cur = start
			// A number after Z without a new command is malformed.
			if pos < len(tokens) && !tokens[pos].isCmd {
				return nil, fmt.Errorf("path data: unexpected number after Z")
			}
		default:
			return nil, fmt.Errorf("path data: unsupported command %c", cmd)
		}
		if !started {
			return nil, fmt.Errorf("path data must start with a move")
		}
	}
	return segs, nil
}

type pathToken struct {
	isCmd bool
	cmd   byte
	num   float64
}

func tokenizePath(data string) ([]pathToken, error) {
	var tokens []pathToken
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvQqCcZz", c) >= 0:
			tokens = append(tokens, pathToken{isCmd: true, cmd: c})
			i++
		default:
			j := i
			if data[j] == '-' || data[j] == '+' {
				j++
			}
			seenDot, seenExp := false, false
			for j < len(data) {
				d := data[j]
				if d >= '0' && d <= '9' {
					j++
					continue
				}
				if d == '.' && !seenDot && !seenExp {
					seenDot = true
					j++
					continue
				}
				if (d == 'e' || d == 'E') && !seenExp && j > i {
					seenExp = true
					j++
					if j < len(data) && (data[j] == '-' || data[j] == '+') {
						j++
					}
					continue
				}
				break
			}
			if j == i {
				return nil, fmt.Errorf("path data: unexpected character %q at %d", c, i)
			}
			v, err := strconv.ParseFloat(data[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("path data: %w", err)
			}
			tokens = append(tokens, pathToken{num: v})
			i = j
		}
	}
	return tokens, nil
}

// formatPathData renders host-coordinate segments as absolute page
// coordinate path data. offset is subtracted from every point first, which
// lets exporters write artboard-relative coordinates.
func formatPathData(segs []segment, offset geometry.Point) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(s.op))
		for j := 0; j < s.op.points(); j++ {
			p := s.pts[j]
			b.WriteByte(' ')
			b.WriteString(formatNumber(p.X - offset.X))
			b.WriteByte(' ')
			b.WriteString(formatNumber(-(p.Y - offset.Y)))
		}
	}
	return b.String()
}

func formatNumber(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rectSegments returns a closed rectangle path.
func rectSegments(r geometry.Rect) []segment {
	return []segment{
		{op: opMove, pts: [3]geometry.Point{{X: r.Left, Y: r.Top}}},
		{op: opLine, pts: [3]geometry.Point{{X: r.Right, Y: r.Top}}},
		{op: opLine, pts: [3]geometry.Point{{X: r.Right, Y: r.Bottom}}},
		{op: opLine, pts: [3]geometry.Point{{X: r.Left, Y: r.Bottom}}},
		{op: opClose},
	}
}
