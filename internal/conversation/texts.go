package conversation

const (
	textGreeting      = "Вітаю! Введіть не менше ніж дві букви для пошуку продуктів."
	textTooShort      = "Введіть не менше ніж дві букви для пошуку."
	textAdminGranted  = "Доступ до адміністрування надано. Оберіть дію:"
	textChooseAction  = "Оберіть дію:"
	textAdminHint     = "Для доступу до адміністрування введіть пароль."
	textPromptName    = "Режим додавання продуктів. Введіть назву продукту:"
	textPromptCarbs   = "Введіть кількість вуглеводів на 100 грам у продукті:"
	textPromptBU      = "Введіть кількість хлібних одиниць у продукті:"
	textInvalidNumber = "Потрібне невід'ємне число, наприклад 12 або 12.5. Спробуйте ще раз:"
	textPromptRemove  = "Режим видалення продуктів. Введіть назву продукту для видалення:"
	textCancelled     = "Скасовано. Продовжуйте пошук."
	textFailure       = "Сталася помилка. Спробуйте ще раз пізніше."
)

const (
	labelAddProduct    = "Додати продукт"
	labelRemoveProduct = "Видалити продукт"
	labelCancel        = "Скасувати"
)

var (
	adminMenuKeyboard = Keyboard{
		{{Label: labelAddProduct, Callback: CallbackAddProduct}, {Label: labelRemoveProduct, Callback: CallbackRemoveProduct}},
		{{Label: labelCancel, Callback: CallbackCancel}},
	}
	cancelKeyboard = Keyboard{{{Label: labelCancel, Callback: CallbackCancel}}}
)

func plain(text string) Reply { return Reply{Text: text} }

func withCancel(text string) Reply { return Reply{Text: text, Keyboard: cancelKeyboard} }

func adminMenu(text string) Reply { return Reply{Text: text, Keyboard: adminMenuKeyboard} }

// FailureReply is the generic reply for errors outside the engine.
func FailureReply() Reply { return plain(textFailure) }
