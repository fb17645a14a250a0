package studentservice

// Student модель ученика из StudentService
type Student struct {
	Identity  int64  `json:"identity"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Enrolled  bool   `json:"enrolled"`   // ученик зачислен на действующий курс
	LicenseID string `json:"license_id"` // номер учебной карточки, пусто до зачисления
}

// ErrorResponse модель ошибки от StudentService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
