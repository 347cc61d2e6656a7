package model

type Book struct {
	ID           int64  `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	Author       string `json:"author" db:"author"`
	Quantity     int    `json:"quantity" db:"quantity"`
	Availability bool   `json:"availability" db:"availability"`
}

// BookSpec describes a book to be inserted. Title, author and quantity must be
// present but may hold any value; availability defaults to true when omitted.
type BookSpec struct {
	Title        *string `json:"title" validate:"required"`
	Author       *string `json:"author" validate:"required"`
	Quantity     *int    `json:"quantity" validate:"required"`
	Availability *bool   `json:"availability,omitempty"`
}

func (s BookSpec) Book() Book {
	b := Book{Availability: true}
	if s.Title != nil {
		b.Title = *s.Title
	}
	if s.Author != nil {
		b.Author = *s.Author
	}
	if s.Quantity != nil {
		b.Quantity = *s.Quantity
	}
	if s.Availability != nil {
		b.Availability = *s.Availability
	}
	return b
}

type CreateBooksRequest struct {
	Books []BookSpec `json:"books" validate:"required,min=1,dive"`
}

type CreateBooksResponse struct {
	Message string  `json:"message"`
	BookIDs []int64 `json:"book_ids"`
}

// UpdateBookRequest carries a partial update: nil fields keep their stored value.
type UpdateBookRequest struct {
	Title        *string `json:"title,omitempty"`
	Author       *string `json:"author,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`
	Availability *bool   `json:"availability,omitempty"`
}

func (r UpdateBookRequest) Empty() bool {
	return r.Title == nil && r.Author == nil && r.Quantity == nil && r.Availability == nil
}

type UpdateBookResponse struct {
	Message string `json:"message"`
	BookID  int64  `json:"book_id"`
}

type DeleteBookResponse struct {
	Detail string `json:"detail"`
}

type DeleteBooksResponse struct {
	Message    string  `json:"message"`
	DeletedIDs []int64 `json:"deleted_ids"`
}
