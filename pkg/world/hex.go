package world

// Hex grid geometry. Tiles are numbered row-major on a GridWidth x GridHeight
// grid of flat-topped hexes in even-q offset layout.

const (
	GridWidth  = 200
	GridHeight = 200
	TileCount  = GridWidth * GridHeight
)

// Direction is one of the six hex directions, clockwise starting at north-east.
type Direction int

const (
	NE Direction = iota
	E
	SE
	SW
	W
	NW
)

// DirectionCount is the number of hex directions.
const DirectionCount = 6

// RotateCW returns the next direction clockwise.
func (d Direction) RotateCW() Direction {
	return (d + 1) % DirectionCount
}

// axial offsets per direction, matching the order of the Direction constants.
var axialDirs = [DirectionCount][2]int{
	{1, -1},
	{1, 0},
	{0, 1},
	{-1, 1},
	{-1, 0},
	{0, -1},
}

// ValidTile reports whether tile lies on the grid.
func ValidTile(tile int) bool {
	return tile >= 0 && tile < TileCount
}

// TileXY splits a tile number into column and row.
func TileXY(tile int) (x, y int) {
	return tile % GridWidth, tile / GridWidth
}

// TileAt returns the tile number at column x, row y, or -1 if outside the grid.
func TileAt(x, y int) int {
	if x < 0 || y < 0 || x >= GridWidth || y >= GridHeight {
		return -1
	}
	return y*GridWidth + x
}

func toAxial(tile int) (q, r int) {
	x, y := TileXY(tile)
	return x, y - (x+(x&1))/2
}

func fromAxial(q, r int) int {
	return TileAt(q, r+(q+(q&1))/2)
}

// Neighbor returns the adjacent tile in direction d.
func Neighbor(tile int, d Direction) (int, bool) {
	if !ValidTile(tile) || d < 0 || d >= DirectionCount {
		return -1, false
	}
	q, r := toAxial(tile)
	n := fromAxial(q+axialDirs[d][0], r+axialDirs[d][1])
	return n, n >= 0
}

// TileInDirection walks n tiles from tile in direction d, stopping at the grid edge.
func TileInDirection(tile int, d Direction, n int) int {
	for i := 0; i < n; i++ {
		next, ok := Neighbor(tile, d)
		if !ok {
			break
		}
		tile = next
	}
	return tile
}

// Distance returns the number of hex steps between two tiles.
func Distance(a, b int) int {
	aq, ar := toAxial(a)
	bq, br := toAxial(b)
	dq, dr := aq-bq, ar-br
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

// DirectionTo returns the direction of the first step from a towards b.
func DirectionTo(a, b int) Direction {
	best, bestDist := NE, Distance(a, b)+1
	for d := NE; d < DirectionCount; d++ {
		n, ok := Neighbor(a, d)
		if !ok {
			continue
		}
		if dist := Distance(n, b); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// InRect reports whether tile lies inside the rectangle spanned by the four corner
// tiles, using column/row bounds.
func InRect(tile, upperLeft, upperRight, lowerLeft, lowerRight int) bool {
	x, y := TileXY(tile)
	minX, minY := TileXY(upperLeft)
	maxX, maxY := minX, minY
	for _, c := range []int{upperRight, lowerLeft, lowerRight} {
		cx, cy := TileXY(c)
		minX, maxX = min(minX, cx), max(maxX, cx)
		minY, maxY = min(minY, cy), max(maxY, cy)
	}
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// FindPath returns the tiles of a greedy path from src to dst, excluding src.
// blocked may be nil. It returns nil when no progress can be made.
func FindPath(src, dst int, blocked func(tile int) bool) []int {
	if !ValidTile(src) || !ValidTile(dst) {
		return nil
	}
	var path []int
	visited := map[int]bool{src: true}
	cur := src
	for cur != dst {
		next, bestDist := -1, Distance(cur, dst)+1
		for d := NE; d < DirectionCount; d++ {
			n, ok := Neighbor(cur, d)
			if !ok || visited[n] || (blocked != nil && n != dst && blocked(n)) {
				continue
			}
			if dist := Distance(n, dst); dist < bestDist {
				next, bestDist = n, dist
			}
		}
		if next < 0 || len(path) > TileCount {
			return nil
		}
		visited[next] = true
		path = append(path, next)
		cur = next
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
