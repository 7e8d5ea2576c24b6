package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sergeii/go-url-shortener/internal/app"
	"github.com/sergeii/go-url-shortener/internal/jobs"
	"github.com/sergeii/go-url-shortener/pkg/url/shortener"
	"github.com/sergeii/go-url-shortener/storage"
)

var ErrInvalidLongURL = errors.New("please provide a valid http(s) url to shorten")
var ErrEmptyToken = errors.New("short url token is empty")

type Handler struct {
	App *app.App
}

func (handler Handler) constructShortURL(token string, r *http.Request) *url.URL {
	// Мы возвращаем короткую ссылку используя настройки базового URL сервиса
	// В случае его отстуствия используем имя хоста, с которым был совершен запрос
	baseURLScheme, baseURLHost, baseURLPath := "http", r.Host, "/"
	if handler.App.Config.BaseURL != nil {
		if handler.App.Config.BaseURL.Scheme != "" {
			baseURLScheme = handler.App.Config.BaseURL.Scheme
		}
		if handler.App.Config.BaseURL.Host != "" {
			baseURLHost = handler.App.Config.BaseURL.Host
		}
		if handler.App.Config.BaseURL.Path != "" {
			baseURLPath = handler.App.Config.BaseURL.Path
		}
	}
	shortURLPath := strings.TrimRight(baseURLPath, "/") + "/" + token
	return &url.URL{
		Scheme: baseURLScheme,
		Host:   baseURLHost,
		Path:   shortURLPath,
	}
}

func validateLongURL(longURL string) error {
	if longURL == "" {
		return ErrInvalidLongURL
	}
	u, err := url.ParseRequestURI(longURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidLongURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidLongURL
	}
	return nil
}

// errorStatus сопоставляет ошибку с кодом ответа.
// Отказ счетчика идентификаторов считаем временной недоступностью сервиса
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidLongURL):
		return http.StatusBadRequest
	case errors.Is(err, shortener.ErrAllocationFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, storage.ErrURLNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (handler Handler) shortenAndSaveLongURL(longURL string, r *http.Request) (*url.URL, error) {
	if err := validateLongURL(longURL); err != nil {
		return nil, err
	}
	// Получаем очередной токен для ссылки и кладем пару в хранилище
	token, err := handler.App.Shortener.Next(r.Context())
	if err != nil {
		log.Printf("failed to issue token for %s due to %s", longURL, err)
		return nil, err
	}
	if err := handler.App.Storage.Set(r.Context(), token, longURL); err != nil {
		log.Printf("failed to save %s as %s due to %s", longURL, token, err)
		return nil, err
	}
	return handler.constructShortURL(token, r), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	respBody, err := json.Marshal(v)
	// Не удалось серилизовать json по некой очень редкой проблеме
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(respBody) // nolint:errcheck
}

// ShortenURL принимает на вход произвольный URL в теле запроса и создает для него "короткую" версию,
// при переходе по которой пользователь попадет на оригинальный "длинный" URL
// В случае успеха возвращает код 201 и готовую короткую ссылку в теле ответа
// В случае отстуствия валидного URL в теле запроса вернет ошибку 400
func (handler Handler) ShortenURL(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	// Пытаемся получить длинный url из тела запроса
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	shortURL, err := handler.shortenAndSaveLongURL(strings.TrimSpace(string(body)), r)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(shortURL.String())) // nolint:errcheck
}

// APIShortenURL по аналогии с ShortenURL принимает на вход произвольный URL и создает для него короткую ссылку.
// Эндпоинт принимает ссылку в виде json, URL в котором указывается ключем "url"
// В случае успеха возвращает код 201 и готовую короткую ссылку в теле ответа, так же в виде json.
// В случае отстуствия валидного URL в теле запроса вернет ошибку 400
func (handler Handler) APIShortenURL(w http.ResponseWriter, r *http.Request) {
	var shortenReq APIShortenRequest
	// Получили невалидный json
	if err := json.NewDecoder(r.Body).Decode(&shortenReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	shortURL, err := handler.shortenAndSaveLongURL(shortenReq.URL, r)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, &APIShortenResult{Result: shortURL.String()})
}

// APIShortenBatch укорачивает сразу несколько ссылок.
// Токены выдаются по одному на каждую ссылку, а сохраняются одной пачкой:
// либо сохраняются все ссылки, либо ни одной
func (handler Handler) APIShortenBatch(w http.ResponseWriter, r *http.Request) {
	var reqItems []APIShortenBatchRequestItem
	if err := json.NewDecoder(r.Body).Decode(&reqItems); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(reqItems) == 0 {
		http.Error(w, "please provide at least one url to shorten", http.StatusBadRequest)
		return
	}
	for _, item := range reqItems {
		if err := validateLongURL(item.OriginalURL); err != nil {
			http.Error(w, fmt.Sprintf("%s (correlation_id %s)", err, item.CorrelationID), http.StatusBadRequest)
			return
		}
	}

	batch := make([]storage.BatchItem, 0, len(reqItems))
	results := make([]APIShortenBatchResultItem, 0, len(reqItems))
	for _, item := range reqItems {
		token, err := handler.App.Shortener.Next(r.Context())
		if err != nil {
			log.Printf("failed to issue token for batch item %s due to %s", item.CorrelationID, err)
			http.Error(w, err.Error(), errorStatus(err))
			return
		}
		batch = append(batch, storage.BatchItem{Token: token, LongURL: item.OriginalURL})
		results = append(results, APIShortenBatchResultItem{
			CorrelationID: item.CorrelationID,
			ShortURL:      handler.constructShortURL(token, r).String(),
		})
	}
	if err := handler.App.Storage.SaveBatch(r.Context(), batch); err != nil {
		log.Printf("failed to save batch of %d urls due to %s", len(batch), err)
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, results)
}

// ExpandURL перенаправляет пользователя, перешедшего по короткой ссылке, на оригинальный "длинный" URL.
// В случае успеха возвращает код 307 с редиректом на оригинальный URL
// В случае неизвестной сервису короткой ссылки возвращает ошибку 404.
// Ссылка ищется по сохраненной строке токена: токены, выданные до смены ключа,
// алфавита или смещения, продолжают работать
func (handler Handler) ExpandURL(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		http.Error(w, ErrEmptyToken.Error(), http.StatusNotFound)
		return
	}
	longURL, err := handler.App.Storage.Get(r.Context(), token)
	if err != nil {
		if !errors.Is(err, storage.ErrURLNotFound) {
			log.Printf("failed to expand %s due to %s", token, err)
		}
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	// Переход учитываем в фоне; если очередь переполнена, переход просто не будет посчитан
	if err := handler.App.Pool.Add(r.Context(), jobs.RecordHit(handler.App.Storage, token)); err != nil {
		log.Printf("failed to record hit for %s due to %s", token, err)
	}
	http.Redirect(w, r, longURL, http.StatusTemporaryRedirect)
}

// GetURLStats возвращает оригинальную ссылку и число переходов по короткой ссылке
func (handler Handler) GetURLStats(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		http.Error(w, ErrEmptyToken.Error(), http.StatusNotFound)
		return
	}
	stats, err := handler.App.Storage.GetStats(r.Context(), token)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, &APIURLStats{
		ShortURL:    handler.constructShortURL(stats.Token, r).String(),
		OriginalURL: stats.LongURL,
		Hits:        stats.Hits,
		CreatedAt:   stats.CreatedAt,
	})
}

// Ping проверяет доступность хранилища
func (handler Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := handler.App.Storage.Ping(r.Context()); err != nil {
		log.Printf("storage %T is not available due to %s", handler.App.Storage, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
