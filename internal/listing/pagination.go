package listing

// Control — элемент навигации по страницам: номер страницы или многоточие.
type Control struct {
	Page     int    `json:"page,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
	Current  bool   `json:"current,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Window вычисляет элементы навигации для страницы current из last.
// Всегда показываются первая и последняя страницы и соседи текущей.
// Многоточие ставится только на месте страниц current-2 и current+2,
// прочие пропущенные страницы выпадают без маркера.
// При last <= 1 навигация не нужна и результат пустой.
func Window(current, last int) []Control {
	if last <= 1 {
		return nil
	}
	current = clamp(current, 1, last)

	var out []Control
	for p := 1; p <= last; p++ {
		switch {
		case p == 1 || p == last || (p >= current-1 && p <= current+1):
			out = append(out, Control{Page: p, Current: p == current})
		case p == current-2 || p == current+2:
			out = append(out, Control{Ellipsis: true})
		}
	}
	return out
}

// Pagination — навигация по страницам с готовыми ссылками.
type Pagination struct {
	Controls []Control `json:"controls"`
	PrevURL  string    `json:"prev_url,omitempty"`
	NextURL  string    `json:"next_url,omitempty"`
	ClearURL string    `json:"clear_url"`
}

// Paginate строит навигацию для текущего состояния фильтров. Ссылки сохраняют
// все фильтры и отличаются только номером страницы.
func (c *Codec) Paginate(path string, f FilterState, page, last int) Pagination {
	p := Pagination{Controls: []Control{}, ClearURL: c.URL(path, c.Clear())}
	for _, ctl := range Window(page, last) {
		if !ctl.Ellipsis {
			ctl.URL = c.URL(path, c.WithPage(f, ctl.Page))
		}
		p.Controls = append(p.Controls, ctl)
	}
	if page > 1 {
		p.PrevURL = c.URL(path, c.WithPage(f, page-1))
	}
	if page < last {
		p.NextURL = c.URL(path, c.WithPage(f, page+1))
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
