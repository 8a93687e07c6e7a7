package bot

import "fmt"

func startText(support string) string {
	return fmt.Sprintf(`🎵 Добро пожаловать в LTL18:33BG - BEATSSUDA Platform

Приветствуем! Мы - комьюнити битмейкеров и продюсеров.
Помогаем друг другу, делаем звук,
продаём / покупаем / делимся китами и пресетами.

🔥 Здесь вы можете:
• Покупать и продавать биты
• Заказывать мастеринг и сведение
• Делиться опытом с комьюнити
• Находить нужные киты и пресеты

Техподдержка: %s

Нажмите кнопку ниже чтобы открыть платформу:`, support)
}

func helpText(support string) string {
	return fmt.Sprintf(`❓ Помощь по BEATSSUDA Platform

Команды:
/start - Главное меню
/app - Открыть платформу
/help - Эта справка

Как пользоваться:
1. Нажмите кнопку меню или используйте /app
2. Откроется платформа в Telegram
3. Покупайте, продавайте, общайтесь!

Техподдержка и модерация: %s
Все проблемы писать ему!`, support)
}
