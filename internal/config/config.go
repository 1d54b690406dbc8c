// Package config provides typed settings for the bot, loaded from a
// settings file plus environment and updated explicitly through the
// admin surface. There is no process-wide broadcast of changes: the
// one component that owns the settings pushes updates to the bot
// through its UpdateSettings method.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Defaults applied when the settings file leaves a field empty.
const (
	DefaultTriggerKeyword = "тур"
	DefaultTourvisorURL   = "http://tourvisor.ru/xml"
	DefaultListenAddr     = ":8080"
	DefaultOpenAIModel    = "gpt-3.5-turbo"
)

// DefaultSystemPrompt drives the casual-conversation persona. The
// extraction prompts are fixed in the extract package; only the
// persona is operator-tunable.
const DefaultSystemPrompt = `Ты — TourAI, опытный и дружелюбный консультант по путешествиям, который ведет естественные беседы.

Твоя главная цель — вовлечь клиента в приятную беседу о путешествиях и плавно собрать всю необходимую информацию для подбора идеального тура.

ПРИНЦИПЫ ОБЩЕНИЯ:
1. Веди разговор естественно, как это делал бы человек, а не бот
2. Задавай открытые вопросы о предпочтениях клиента
3. Ненавязчиво выясняй детали поездки (город вылета, страна, даты, количество путешественников)
4. Делись интересными фактами о направлениях, которые упоминает клиент
5. Показывай экспертность: сезонность, популярные курорты, особенности направлений
6. Поддерживай энтузиазм и вдохновляй клиента на путешествие

Помни: ты не просто отвечаешь на вопросы, а ведешь увлекательную беседу, в процессе которой собираешь информацию для подбора идеального тура.`

// Settings is the full runtime configuration.
type Settings struct {
	// OpenAI credentials for extraction and conversation.
	OpenAIKey   string `mapstructure:"openai_api_key"`
	OpenAIModel string `mapstructure:"openai_model"`

	// Tourvisor search backend credentials.
	TourvisorLogin    string `mapstructure:"tourvisor_login"`
	TourvisorPassword string `mapstructure:"tourvisor_password"`
	TourvisorBaseURL  string `mapstructure:"tourvisor_base_url"`

	// SystemPrompt is the persona used for casual conversation.
	SystemPrompt string `mapstructure:"system_prompt"`

	// TriggerKeyword switches a conversation into slot-filling mode.
	TriggerKeyword string `mapstructure:"trigger_keyword"`

	// Messaging gateway endpoints.
	GatewayURL     string `mapstructure:"gateway_url"`
	GatewayToken   string `mapstructure:"gateway_token"`
	GatewaySession string `mapstructure:"gateway_session"`

	// Admin surface.
	ListenAddr    string `mapstructure:"listen_addr"`
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassword string `mapstructure:"admin_password"`
}

// applyDefaults fills empty fields with their defaults.
func (s *Settings) applyDefaults() {
	if s.OpenAIModel == "" {
		s.OpenAIModel = DefaultOpenAIModel
	}
	if s.TourvisorBaseURL == "" {
		s.TourvisorBaseURL = DefaultTourvisorURL
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = DefaultSystemPrompt
	}
	if s.TriggerKeyword == "" {
		s.TriggerKeyword = DefaultTriggerKeyword
	}
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.AdminUser == "" {
		s.AdminUser = "admin"
	}
}

// Validate checks the fields the process cannot run without at all.
// Missing API credentials are deliberately not fatal here: the bot
// starts unconfigured and reports credential problems in-conversation.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.ListenAddr) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if strings.TrimSpace(s.TriggerKeyword) == "" {
		return fmt.Errorf("trigger keyword cannot be empty")
	}
	return nil
}

// Load reads settings from the given file path, overlaying TOURAI_*
// environment variables. A missing file is not an error; defaults and
// environment apply.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("tourai")
	v.AutomaticEnv()

	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Save writes settings back to the given file so that admin-panel
// updates survive a restart.
func Save(path string, s Settings) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("openai_api_key", s.OpenAIKey)
	v.Set("openai_model", s.OpenAIModel)
	v.Set("tourvisor_login", s.TourvisorLogin)
	v.Set("tourvisor_password", s.TourvisorPassword)
	v.Set("tourvisor_base_url", s.TourvisorBaseURL)
	v.Set("system_prompt", s.SystemPrompt)
	v.Set("trigger_keyword", s.TriggerKeyword)
	v.Set("gateway_url", s.GatewayURL)
	v.Set("gateway_token", s.GatewayToken)
	v.Set("gateway_session", s.GatewaySession)
	v.Set("listen_addr", s.ListenAddr)
	v.Set("admin_user", s.AdminUser)
	v.Set("admin_password", s.AdminPassword)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"openai_api_key", "openai_model",
		"tourvisor_login", "tourvisor_password", "tourvisor_base_url",
		"system_prompt", "trigger_keyword",
		"gateway_url", "gateway_token", "gateway_session",
		"listen_addr", "admin_user", "admin_password",
	} {
		_ = v.BindEnv(key)
	}
}
