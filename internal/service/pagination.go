package service

const maxPerPage = 100

// Page запрошенная страница списка.
type Page struct {
	Number  int
	PerPage int
}

// normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (p Page) normalize(defaultPerPage int) Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.PerPage
}

// Paged страница результатов с общим количеством.
type Paged[T any] struct {
	Items   []T
	Total   int
	Page    int
	PerPage int
}

func paged[T any](items []T, total int, p Page) *Paged[T] {
	return &Paged[T]{Items: items, Total: total, Page: p.Number, PerPage: p.PerPage}
}
