package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type Config struct {
	AppName       string
	Env           string
	Debug         bool
	TestMode      bool
	Build         string
	DataDir       string
	AdminPassword string
	BcryptCost    int
	RollbarToken  string
	Storage       struct {
		Driver     string // flatfile | sqlite
		SQLitePath string
	}
	Log struct {
		Level  string
		Pretty bool
	}
	Metrics struct {
		Textfile string
	}
	Backup struct {
		Bucket          string
		Region          string
		Endpoint        string
		Prefix          string
		PathStyle       bool
		AccessKeyID     string
		SecretAccessKey string
	}
}

func init() {
	conf, err := LoadConfig()
	if err != nil {
		log.Fatalf("core.LoadConfig: %v", err)
	}
	Conf = conf
}

// LoadConfig reads the configuration from the environment, after loading `config/.env.<env>` if it exists.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Shule")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("dataDir", "school_data")
	v.SetDefault("adminPassword", "admin123")
	v.SetDefault("bcryptCost", 10)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("storage.driver", "flatfile")
	v.SetDefault("storage.sqlitePath", filepath.Join("school_data", "shule.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("metrics.textfile", "shule.prom")
	v.SetDefault("backup.s3.bucket", "")
	v.SetDefault("backup.s3.region", "us-east-1")
	v.SetDefault("backup.s3.endpoint", "")
	v.SetDefault("backup.s3.prefix", "shule")
	v.SetDefault("backup.s3.pathStyle", false)
	v.SetDefault("backup.s3.accessKeyID", "")
	v.SetDefault("backup.s3.secretAccessKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("bcryptCost", 4)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:       v.GetString("appName"),
		Env:           env,
		Debug:         v.GetBool("debug"),
		TestMode:      v.GetBool("testMode"),
		Build:         v.GetString("build"),
		DataDir:       v.GetString("dataDir"),
		AdminPassword: v.GetString("adminPassword"),
		BcryptCost:    v.GetInt("bcryptCost"),
		RollbarToken:  v.GetString("rollbarToken"),
	}
	conf.Storage.Driver = strings.ToLower(v.GetString("storage.driver"))
	conf.Storage.SQLitePath = v.GetString("storage.sqlitePath")
	conf.Log.Level = v.GetString("log.level")
	conf.Log.Pretty = v.GetBool("log.pretty")
	conf.Metrics.Textfile = v.GetString("metrics.textfile")
	conf.Backup.Bucket = v.GetString("backup.s3.bucket")
	conf.Backup.Region = v.GetString("backup.s3.region")
	conf.Backup.Endpoint = v.GetString("backup.s3.endpoint")
	conf.Backup.Prefix = v.GetString("backup.s3.prefix")
	conf.Backup.PathStyle = v.GetBool("backup.s3.pathStyle")
	conf.Backup.AccessKeyID = v.GetString("backup.s3.accessKeyID")
	conf.Backup.SecretAccessKey = v.GetString("backup.s3.secretAccessKey")
	return conf, nil
}
