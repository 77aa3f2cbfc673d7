package shared

type ClientConfig struct {
	API       APIConfig       `mapstructure:"api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Google    GoogleConfig    `mapstructure:"google"`
	DevServer DevServerConfig `mapstructure:"devServer"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"baseUrl" validate:"required,url"`

	// 0 means requests never time out
	TimeoutSeconds int `mapstructure:"timeoutSeconds" validate:"min=0"`
}

type CacheConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
	Dir        string `mapstructure:"dir"`
}

type SyncConfig struct {
	RefreshEvery         string `mapstructure:"refreshEvery"`
	TimeZone             string `mapstructure:"timeZone"`
	RefreshOnResume      bool   `mapstructure:"refreshOnResume"`
	SearchDebounceMillis int    `mapstructure:"searchDebounceMillis" validate:"min=0"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

type DevServerConfig struct {
	Port   int    `mapstructure:"port" validate:"min=0,max=65535"`
	Secret string `mapstructure:"secret"`
}
