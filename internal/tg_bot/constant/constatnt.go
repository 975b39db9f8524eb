// Package constant holds the user-facing texts and command names of the bot.
package constant

const (
	EMOJI_NERD_FACE = "\U0001F913" //🤓
	EMOJI_PARTY     = "\U0001F389" //🎉
	EMOJI_HOUSE     = "\U0001F3E0" //🏠

	COMMAND_START = "start"
	COMMAND_HELP  = "help"
	COMMAND_RETRY = "retry"
	COMMAND_MODEL = "model"
	COMMAND_CHATS = "chats"

	COMMAND_ANALYZE  = "analyze"
	COMMAND_GENERATE = "generate"

	COMMAND_DESCRIPTION_START = "Начать заново"
	COMMAND_DESCRIPTION_HELP  = "Как пользоваться ботом"
	COMMAND_DESCRIPTION_RETRY = "Повторить генерацию последнего описания"

	COMMAND_DESCRIPTION_ANALYZE  = "Проверить текст объявления"
	COMMAND_DESCRIPTION_GENERATE = "Сгенерировать описание по сохраненным данным"
)

// Ответы на шагах сбора данных
const (
	TEXT_AFTER_ADDRESS = "Спасибо за адрес. Далее загрузите фотографию квартиры."
	TEXT_AFTER_PHOTO   = "Спасибо за фотографии. Для составления описания мне нужно еще несколько деталей. " +
		"Напишите одним сообщением в свободной форме основные данные о квартире, которые вы хотите отразить в описании " +
		"(например, этаж, планировка, ремонт, вид из окна)."
	TEXT_AFTER_FLAT = "Спасибо за данные о квартире. Предпоследний шаг - напишите одним сообщением в свободной форме " +
		"основные данные о доме (например, год постройки, тип дома, наличие удобств в виде консьержа и т.п.)."
	TEXT_AFTER_HOUSE = "Спасибо за данные о доме. Описание почти готово. Последним шагом напишите условия сделки " +
		"(например, про тип сделки, юр чистота, сколько собственников)."
	TEXT_GENERATING = "Спасибо, генерирую финальное описание ... " + EMOJI_NERD_FACE

	TEXT_SEARCHING_INFRASTRUCTURE = "Ищу супермаркеты, торговые центры, станции метро и другие обьекты поблизости..."
	TEXT_NO_INFRASTRUCTURE        = "Не удалось найти объекты инфраструктуры поблизости, описание будет составлено без них."
	TEXT_EMPTY_INPUT              = "Пустой текст не подходит, пришлите что-то:)"
	TEXT_PHOTO_EXPECTED           = "Пожалуйста, пришлите фотографию квартиры."
	TEXT_PHOTO_DOWNLOAD_FAILED    = "Не удалось загрузить фотографию, попробуйте отправить ее еще раз."
	TEXT_QUOTA_EXCEEDED           = "Вы превысыли вашу дневную квоту на кол-во запросов. Попробуйте завтра или оформите подписку."
	TEXT_DESCRIPTION_READY        = EMOJI_PARTY + " Ваше описание готово! " + EMOJI_PARTY
	TEXT_TRY_AGAIN                = "Чтобы попробовать снова - просто введите адрес обьекта недвижимости."
	TEXT_GENERATION_FAILED        = "Произошла ошибка при создании описания: %v\nПопробуйте начать заново с команды /start"
	TEXT_RETRY_AVAILABLE          = "Данные объявления сохранены, можно повторить генерацию командой /retry."
	TEXT_NOTHING_TO_RETRY         = "Нет сохраненных данных для повторной генерации. Начните с адреса объекта недвижимости."
	TEXT_RETRY_ONLY_AT_START      = "Повторить генерацию можно только после завершения заполнения. Продолжите текущий шаг или начните заново с /start."

	TEXT_WELCOME = "Привет! " + EMOJI_HOUSE + " Я помогу составить продающее описание для объявления о продаже квартиры.\n\n" +
		"Я задам несколько вопросов: адрес, фотография, данные о квартире, о доме и условия сделки. " +
		"По адресу я сам найду магазины, школы, метро и парки поблизости.\n\n" +
		"Для начала введите адрес объекта недвижимости."
	TEXT_HELP = "Как это работает:\n" +
		"1. Введите адрес объекта недвижимости.\n" +
		"2. Загрузите фотографию квартиры.\n" +
		"3. Опишите квартиру.\n" +
		"4. Опишите дом.\n" +
		"5. Укажите условия сделки.\n\n" +
		"После этого я сгенерирую описание. /start - начать заново, /retry - повторить генерацию.\n\n" +
		"/analyze <текст> - проверить готовый текст объявления, /generate - описание по сохраненным данным о вас."

	TEXT_ANALYZE_EMPTY       = "Не могу проанализировать пустой текст, попробуйте что-нибудь написать."
	TEXT_ANALYZE_TOO_LONG    = "Текст слишком длинный, максимум 1000 символов."
	TEXT_ANALYZING           = "Обрабатываю запрос... " + EMOJI_NERD_FACE
	TEXT_ANALYZE_FAILED      = "Не удалось проанализировать текст: %v"
	TEXT_GENERATE_NO_CONTEXT = "Нет сохраненных данных о вас для генерации. Введите адрес объекта недвижимости, чтобы заполнить объявление по шагам."

	TEXT_OWNER_ONLY       = "Эта команда доступна только владельцу бота."
	TEXT_MODEL_USAGE      = "Укажите название модели: /model <название>"
	TEXT_MODEL_CHANGED    = "Модель изменена на %s"
	TEXT_MODEL_NOT_CHANGE = "Не удалось сменить модель: %v"
	TEXT_CHATS            = "Бот сейчас общается с пользователями: %s.\nСостоит в группах: %s.\nАдминистратор в каналах: %s."
)
