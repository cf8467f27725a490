package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Page     int `query:"page" validate:"min=0"`
	PageSize int `query:"page_size" validate:"min=0,max=100"`
}

// DefaultPageSize tamaño de página del listado de ventas.
const DefaultPageSize = 10

// DefaultPage aplica valores por defecto si Page/PageSize son cero.
func (p *PageRequest) DefaultPage() {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Page <= 0 {
		p.Page = 1
	}
}

// Offset posición del primer elemento de la página.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ErrorResponse cuerpo de error HTTP. Fields lleva los errores por campo de un formulario.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
