package window

import (
	"github.com/zurustar/scriptvm/pkg/world"
)

// Hex cells are drawn on a staggered grid: odd columns sit half a cell lower.
const (
	cellWidth  = 16
	cellHeight = 12
	viewCols   = screenWidth / cellWidth
	viewRows   = screenHeight / cellHeight
)

// viewport is the part of the map on screen, given by its upper-left column and row.
type viewport struct {
	left, top int
}

// viewportAround centers the view on tile.
func viewportAround(tile int) viewport {
	x, y := world.TileXY(tile)
	return viewport{left: x - viewCols/2, top: y - viewRows/2}
}

// tileToScreen returns the upper-left corner of tile's cell.
func (v viewport) tileToScreen(tile int) (float64, float64) {
	x, y := world.TileXY(tile)
	sx := (x - v.left) * cellWidth
	sy := (y-v.top)*cellHeight + (x&1)*cellHeight/2
	return float64(sx), float64(sy)
}

// screenToTile returns the tile under the screen position, -1 if off the map.
func (v viewport) screenToTile(sx, sy int) int {
	x := v.left + floorDiv(sx, cellWidth)
	y := v.top + floorDiv(sy-(x&1)*cellHeight/2, cellHeight)
	return world.TileAt(x, y)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
