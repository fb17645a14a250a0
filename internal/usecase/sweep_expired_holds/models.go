package sweep_expired_holds

// Result итог одного прохода
type Result struct {
	Expired int // отменено по таймауту
	Skipped int // уже оплачено или отменено конкурентной операцией
}
