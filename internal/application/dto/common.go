package dto

// ErrorResponse cuerpo de error HTTP. Code es el código estable del error (domain.ErrorKind).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
