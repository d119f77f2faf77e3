package logic

// FallbackMaxPage is shown while the battle count is unknown.
const FallbackMaxPage = 10

const windowRadius = 2

// MaxPage returns ceil(count/size). An unknown count yields
// FallbackMaxPage; an empty list still has one (empty) page.
func MaxPage(count, size int, known bool) int {
	if !known || size <= 0 {
		return FallbackMaxPage
	}
	if count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Pager tracks the current page against the maximum. Current is always in
// [1, Max].
type Pager struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

func NewPager(current, max int) Pager {
	if max < 1 {
		max = 1
	}
	if current < 1 {
		current = 1
	}
	if current > max {
		current = max
	}
	return Pager{Current: current, Max: max}
}

func (p Pager) HasPrev() bool { return p.Current > 1 }
func (p Pager) HasNext() bool { return p.Current < p.Max }

// Next advances one page. At the last page it does nothing and returns
// false.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.Current++
	return true
}

// Prev goes back one page. At page 1 it does nothing and returns false.
func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.Current--
	return true
}

// Contains reports whether page is a valid page number.
func (p Pager) Contains(page int) bool {
	return page >= 1 && page <= p.Max
}

// PageWindow is what the pagination control renders.
type PageWindow struct {
	Pages            []int `json:"pages"`
	LeadingEllipsis  bool  `json:"leadingEllipsis"`
	TrailingEllipsis bool  `json:"trailingEllipsis"`
	PrevDisabled     bool  `json:"prevDisabled"`
	NextDisabled     bool  `json:"nextDisabled"`
}

// Window returns the current page ±2, clamped to [1, Max], with ellipsis
// markers where the window stops short of either end.
func (p Pager) Window() PageWindow {
	start := p.Current - windowRadius
	if start < 1 {
		start = 1
	}
	end := p.Current + windowRadius
	if end > p.Max {
		end = p.Max
	}

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return PageWindow{
		Pages:            pages,
		LeadingEllipsis:  start > 1,
		TrailingEllipsis: end < p.Max,
		PrevDisabled:     !p.HasPrev(),
		NextDisabled:     !p.HasNext(),
	}
}
