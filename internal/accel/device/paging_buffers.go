package device

import "fmt"

// BuildPages splits elems across as many fixed-size device buffers as
// PlanPaging allows, encoding each element with encode. It is the shared
// machinery behind every kernel's node/vertex/leaf array paging: each
// tree's own array type supplies its own elemSize and encode function,
// and gets the same page-count/page-size guarantees.
func BuildPages[T any](d Device, elems []T, elemSize int, encode func(T) []byte, label string) ([]Handle, Paging, error) {
	if elemSize <= 0 {
		return nil, Paging{}, fmt.Errorf("device: non-positive element size for %s", label)
	}

	maxElemsPerPage := int(d.MaxMemAllocSize()) / elemSize
	paging, err := PlanPaging(len(elems), maxElemsPerPage)
	if err != nil {
		return nil, Paging{}, fmt.Errorf("%s: %w", label, err)
	}

	pages := make([]Handle, paging.PageCount)
	for p := 0; p < paging.PageCount; p++ {
		start := p * paging.ElementsPerPage
		end := start + paging.ElementsPerPage
		if end > len(elems) {
			end = len(elems)
		}

		buf := make([]byte, 0, (end-start)*elemSize)
		for i := start; i < end; i++ {
			buf = append(buf, encode(elems[i])...)
		}

		h, err := d.AllocBuffer(ReadOnly, buf, len(buf), fmt.Sprintf("%s[page %d]", label, p))
		if err != nil {
			return nil, Paging{}, err
		}
		pages[p] = h
	}
	return pages, paging, nil
}

// FreePages releases every handle in pages in reverse order, matching the
// LIFO discipline every Device requires of its callers.
func FreePages(d Device, pages []Handle) error {
	for i := len(pages) - 1; i >= 0; i-- {
		if err := d.FreeBuffer(pages[i]); err != nil {
			return err
		}
	}
	return nil
}
