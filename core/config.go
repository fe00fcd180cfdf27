package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	databaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		// Listen subscribes to the task change feed (LISTEN/NOTIFY).
		Listen bool
	}

	dataConfig struct {
		Dir             string
		FailureFiles    []string
		WorkloadFile    string
		PredictionsFile string
		ChatAnswersFile string
		Delimiter       string
	}

	kafkaConfig struct {
		Enabled bool
		Brokers []string
		Topic   string
	}

	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		WorkDir          string
		SecretKey        string
		RollbarToken     string
		SendgridAPIKey   string
		DefaultFromEmail mail.Address
		FrontendBaseURL  string
		SignupEnabled    bool

		Server   serverConfig
		Database databaseConfig
		Data     dataConfig
		Kafka    kafkaConfig
	}
)

// Address returns the database "host:port".
func (c databaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// URL returns the connection URL to the database `dbName`.
// When `admin` is set and an admin user is configured, the admin credentials are used.
func (c databaseConfig) URL(dbName string, admin bool) string {
	usr := url.UserPassword(c.User, c.Password)
	if admin && c.AdminUser != "" {
		usr = url.UserPassword(c.AdminUser, c.AdminPassword)
	}

	sslMode := "require"
	if c.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   c.Engine,
		User:     usr,
		Host:     c.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// FailurePaths returns the absolute paths of the failure CSV sources.
func (c dataConfig) FailurePaths() []string {
	paths := make([]string, 0, len(c.FailureFiles))
	for _, f := range c.FailureFiles {
		paths = append(paths, filepath.Join(c.Dir, f))
	}
	return paths
}

func (c dataConfig) WorkloadPath() string    { return filepath.Join(c.Dir, c.WorkloadFile) }
func (c dataConfig) PredictionsPath() string { return filepath.Join(c.Dir, c.PredictionsFile) }

func (c dataConfig) ChatAnswersPath() string {
	if c.ChatAnswersFile == "" {
		return ""
	}
	return filepath.Join(c.Dir, c.ChatAnswersFile)
}

// NewConfig loads the app configuration: defaults < config/.env.<env> < environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "GMAO")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k3j$9w!x)r2n+u5=pq&zvd7(b!h)#*a4(#mt8^$fye0lgs")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromName", "GMAO Dashboard")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseUrl", "http://localhost:3000")
	v.SetDefault("signupEnabled", true)

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverReadTimeout", 5*time.Second)
	v.SetDefault("serverWriteTimeout", 5*time.Second)
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "gmao")
	v.SetDefault("dbUser", "gmao")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTls", false)
	v.SetDefault("dbListen", true)

	v.SetDefault("dataDir", filepath.Join("public", "data"))
	v.SetDefault("dataFailureFiles", "AMDEC.csv,GMAO_Integrator.csv")
	v.SetDefault("dataWorkloadFile", "Workload.csv")
	v.SetDefault("dataPredictionsFile", "ml_predictions.json")
	v.SetDefault("dataChatAnswersFile", "")
	v.SetDefault("dataDelimiter", ";")

	v.SetDefault("kafkaEnabled", false)
	v.SetDefault("kafkaBrokers", "localhost:9092")
	v.SetDefault("kafkaTopic", "gmao.tasks")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	dataDir := v.GetString("dataDir")
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(workDir, dataDir)
	}

	return &Config{
		Env:            env,
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		AppName:        v.GetString("appName"),
		Build:          v.GetString("build"),
		WorkDir:        workDir,
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		FrontendBaseURL: strings.TrimRight(v.GetString("frontendBaseUrl"), "/"),
		SignupEnabled:   v.GetBool("signupEnabled"),
		Server: serverConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ReadTimeout:               v.GetDuration("serverReadTimeout"),
			WriteTimeout:              v.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: databaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTls"),
			Listen:        v.GetBool("dbListen"),
		},
		Data: dataConfig{
			Dir:             dataDir,
			FailureFiles:    splitList(v.GetString("dataFailureFiles")),
			WorkloadFile:    v.GetString("dataWorkloadFile"),
			PredictionsFile: v.GetString("dataPredictionsFile"),
			ChatAnswersFile: v.GetString("dataChatAnswersFile"),
			Delimiter:       v.GetString("dataDelimiter"),
		},
		Kafka: kafkaConfig{
			Enabled: v.GetBool("kafkaEnabled"),
			Brokers: splitList(v.GetString("kafkaBrokers")),
			Topic:   v.GetString("kafkaTopic"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: no I/O, short token lifetimes.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "GMAO",
		Build:            "test",
		SecretKey:        "secret",
		DefaultFromEmail: mail.Address{Name: "GMAO Dashboard", Address: "noreply@localhost"},
		FrontendBaseURL:  "http://localhost:3000",
		SignupEnabled:    true,
		Server: serverConfig{
			Host:                      "localhost",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Data: dataConfig{Delimiter: ";"},
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) String() string {
	return fmt.Sprintf("%s env=%s build=%s debug=%t", c.AppName, c.Env, c.Build, c.Debug)
}
