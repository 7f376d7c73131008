package services

// PaymeErrorInfo describes a Payme Merchant API error with its multilingual
// message, as required by the JSON-RPC error envelope.
type PaymeErrorInfo struct {
	Name    string
	Code    int
	Message map[string]string
}

var (
	PaymeErrorInvalidAmount = PaymeErrorInfo{
		Name: "InvalidAmount",
		Code: -31001,
		Message: map[string]string{
			"uz": "Noto'g'ri summa",
			"ru": "Недопустимая сумма",
			"en": "Invalid amount",
		},
	}
	PaymeErrorTransactionNotFound = PaymeErrorInfo{
		Name: "TransactionNotFound",
		Code: -31003,
		Message: map[string]string{
			"uz": "Tranzaktsiya topilmadi",
			"ru": "Транзакция не найдена",
			"en": "Transaction not found",
		},
	}
	PaymeErrorCouldNotCancel = PaymeErrorInfo{
		Name: "CouldNotCancel",
		Code: -31007,
		Message: map[string]string{
			"uz": "Tranzaktsiyani bekor qilib bo'lmaydi",
			"ru": "Невозможно отменить транзакцию",
			"en": "Could not cancel transaction",
		},
	}
	PaymeErrorCantDoOperation = PaymeErrorInfo{
		Name: "CantDoOperation",
		Code: -31008,
		Message: map[string]string{
			"uz": "Biz operatsiyani bajara olmaymiz",
			"ru": "Мы не можем сделать операцию",
			"en": "We can't do operation",
		},
	}
	PaymeErrorOrderNotFound = PaymeErrorInfo{
		Name: "OrderNotFound",
		Code: -31050,
		Message: map[string]string{
			"uz": "Buyurtma topilmadi",
			"ru": "Заказ не найден",
			"en": "Order not found",
		},
	}
	PaymeErrorAlreadyDone = PaymeErrorInfo{
		Name: "AlreadyDone",
		Code: -31060,
		Message: map[string]string{
			"uz": "Mahsulot uchun to'lov qilingan",
			"ru": "Оплачено за товар",
			"en": "Paid for the product",
		},
	}
	PaymeErrorInternalSystem = PaymeErrorInfo{
		Name: "InternalSystem",
		Code: -32400,
		Message: map[string]string{
			"uz": "Tizim xatosi",
			"ru": "Системная ошибка",
			"en": "Internal system error",
		},
	}
	PaymeErrorInvalidAuthorization = PaymeErrorInfo{
		Name: "InvalidAuthorization",
		Code: -32504,
		Message: map[string]string{
			"uz": "Avtorizatsiya yaroqsiz",
			"ru": "Авторизация недействительна",
			"en": "Authorization invalid",
		},
	}
	PaymeErrorInvalidJSONRPC = PaymeErrorInfo{
		Name: "InvalidJSONRPC",
		Code: -32600,
		Message: map[string]string{
			"uz": "JSON-RPC obyekti yaroqsiz",
			"ru": "Недопустимый JSON-RPC объект",
			"en": "Invalid JSON-RPC object",
		},
	}
	PaymeErrorMethodNotFound = PaymeErrorInfo{
		Name: "MethodNotFound",
		Code: -32601,
		Message: map[string]string{
			"uz": "Metod topilmadi",
			"ru": "Метод не найден",
			"en": "Method not found",
		},
	}
)

// TransactionError is a structured Payme transaction error carrying the
// request id so the handler can echo it back in the error envelope.
type TransactionError struct {
	Info PaymeErrorInfo
	ID   any
	Data any
}

func (e *TransactionError) Error() string {
	return e.Info.Name
}
