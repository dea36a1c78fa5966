package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "measure-bot/internal/application"
	"measure-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для измерения вытянутых предметов по фотографии.

📸 Сфотографируйте предмет на однотонном фоне, и я измерю его длину, ширину и обхват.

📋 Команды:
/measure — измерить предмет
/autocalibrate — калибровка по банковской карте
/calibrate x1 y1 x2 y2 длина — ручная калибровка по двум точкам
/unit in|cm — единицы измерения
/history — последние измерения
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Откалибруйте масштаб: /autocalibrate и фото банковской карты, лежащей на фоне
2️⃣ Отправьте /measure и фото предмета
3️⃣ Вы получите длину, ширину, обхват и фото с разметкой оси

📐 Ручная калибровка: /calibrate x1 y1 x2 y2 длина
Координаты — пиксели последнего фото, длина — в текущих единицах.

💡 Рекомендации:
• Снимайте при хорошем освещении
• Используйте однотонный фон
• Предмет целиком в кадре, не у края`

	msgAwaitingPhoto       = "📸 Отправьте фото предмета для измерения."
	msgAwaitingCalibration = "💳 Отправьте фото с банковской картой, лежащей рядом с предметом."
	msgCancelled           = "❌ Операция отменена. Отправьте /measure для нового измерения."
	msgSendPhoto           = "📸 Пожалуйста, отправьте фото предмета. /help — справка."
	msgUnknownCommand      = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing          = "⏳ Обрабатываю изображение..."
	msgNoSubject           = "🔍 Предмет не найден. Попробуйте однотонный фон и лучшее освещение."
	msgProcessingError     = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgCalibrateUsage      = "📐 Формат: /calibrate x1 y1 x2 y2 [длина]"
	msgUnitUsage           = "📏 Формат: /unit in или /unit cm"
)

// Bot представляет Telegram-бота
type Bot struct {
	api             *tgbotapi.BotAPI
	users           *app.UserService
	measurements    *app.MeasurementService
	referenceLength float64
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, measurements *app.MeasurementService, referenceLength float64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:             api,
		users:           users,
		measurements:    measurements,
		referenceLength: referenceLength,
	}, nil
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.setState(ctx, user, entity.StateMainMenu)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "measure":
		b.setState(ctx, user, entity.StateAwaitingPhoto)
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "autocalibrate":
		b.setState(ctx, user, entity.StateAwaitingCalibrationPhoto)
		b.sendMessage(chatID, msgAwaitingCalibration)

	case "calibrate":
		b.handleCalibrate(ctx, msg, user)

	case "unit":
		unit, err := entity.ParseUnit(msg.CommandArguments())
		if err != nil {
			b.sendMessage(chatID, msgUnitUsage)
			return
		}
		if _, err := b.measurements.SetUnit(ctx, user.ID, chatID, unit); err != nil {
			log.Printf("Error setting unit: %v", err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ Единицы измерения: %s", unit))

	case "history":
		_, text, err := b.measurements.History(ctx, user.ID)
		if err != nil {
			log.Printf("Error loading history: %v", err)
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, text)

	case "cancel":
		b.setState(ctx, user, entity.StateMainMenu)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleCalibrate разбирает /calibrate x1 y1 x2 y2 [длина]
func (b *Bot) handleCalibrate(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	p1, p2, length, err := parseCalibrateArgs(msg.CommandArguments(), b.referenceLength)
	if err != nil {
		b.sendMessage(msg.Chat.ID, msgCalibrateUsage)
		return
	}

	state, err := b.measurements.Calibrate(ctx, user.ID, p1, p2, length, user.Unit)
	switch {
	case errors.Is(err, entity.ErrZeroPixelDistance):
		b.sendMessage(msg.Chat.ID, "⚠️ Точки совпадают, калибровка не изменена.")
	case errors.Is(err, entity.ErrNonPositiveReference):
		b.sendMessage(msg.Chat.ID, "⚠️ Длина должна быть положительной, калибровка не изменена.")
	case err != nil:
		log.Printf("Error calibrating: %v", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
	default:
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Масштаб: %.2f пикс/%s", state.PixelsPerUnit, state.Unit))
	}
}

// parseCalibrateArgs читает четыре координаты и необязательную длину
func parseCalibrateArgs(args string, defaultLength float64) (entity.Point, entity.Point, float64, error) {
	fields := strings.Fields(args)
	if len(fields) != 4 && len(fields) != 5 {
		return entity.Point{}, entity.Point{}, 0, fmt.Errorf("want 4 or 5 arguments, got %d", len(fields))
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.ReplaceAll(f, ",", "."), 64)
		if err != nil {
			return entity.Point{}, entity.Point{}, 0, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}
	length := defaultLength
	if len(values) == 5 {
		length = values[4]
	}
	return entity.Pt(values[0], values[1]), entity.Pt(values[2], values[3]), length, nil
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if user.State != entity.StateAwaitingPhoto && user.State != entity.StateAwaitingCalibrationPhoto {
		// фото без команды считается измерением
		user.SetState(entity.StateAwaitingPhoto)
	}

	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(photo.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.setState(ctx, user, entity.StateMainMenu)
		return
	}
	log.Printf("Received image %dx%d: %s", photo.Width, photo.Height, humanize.Bytes(uint64(len(imageData))))

	if user.State == entity.StateAwaitingCalibrationPhoto {
		b.calibrateFromPhoto(ctx, msg, user, imageData)
		return
	}
	b.measurePhoto(ctx, msg, user, imageData, photo.FileID)
}

func (b *Bot) calibrateFromPhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, imageData []byte) {
	state, err := b.measurements.AutoCalibrate(ctx, user.ID, msg.Chat.ID, imageData)
	if err != nil {
		log.Printf("Error auto-calibrating: %v", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	if !state.Validated {
		b.sendMessage(msg.Chat.ID, "⚠️ Карта не найдена. Масштаб оценён по плотности экрана, результаты будут приблизительными.")
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Карта найдена. Масштаб: %.2f пикс/%s", state.PixelsPerUnit, state.Unit))
}

func (b *Bot) measurePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, imageData []byte, fileID string) {
	out, err := b.measurements.Measure(ctx, user.ID, msg.Chat.ID, imageData, fileID)
	switch {
	case errors.Is(err, entity.ErrNoSubjectDetected):
		b.sendMessage(msg.Chat.ID, msgNoSubject)
		return
	case err != nil:
		log.Printf("Error measuring: %v", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	if len(out.Highlighted) == 0 {
		b.sendMessage(msg.Chat.ID, out.Text)
		return
	}
	log.Printf("Sending overlay: %s", humanize.Bytes(uint64(len(out.Highlighted))))
	reply := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "measurement", Bytes: out.Highlighted})
	reply.Caption = out.Text
	if _, err := b.api.Send(reply); err != nil {
		log.Printf("Error sending photo: %v", err)
		b.sendMessage(msg.Chat.ID, out.Text)
	}
}

func (b *Bot) setState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.users.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		log.Printf("Error saving user state: %v", err)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
