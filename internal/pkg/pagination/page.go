package pagination

const MaxSize = 100

// Page is one slice of a listing plus the numbers a client needs to page through it.
// Page numbers start at 0.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// Request is a normalised page request.
type Request struct {
	Page int
	Size int
}

// NewRequest clamps page to >= 0 and size to 1..MaxSize, using defaultSize for non-positive sizes.
func NewRequest(page, size, defaultSize int) Request {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Request{Page: page, Size: size}
}

func (r Request) Offset() int {
	return r.Page * r.Size
}

// New wraps items of the requested page. Content is never nil so it encodes as [].
func New[T any](items []T, req Request, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		First:         req.Page == 0,
		Last:          req.Page >= pages-1,
	}
}

// Map converts the content of a page, keeping the paging numbers.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[U]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
