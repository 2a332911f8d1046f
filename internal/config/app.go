package config

type AppConfig struct {
	Server   ServerConfig
	Log      LogConfig
	Provider ProviderConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	providerCfg, err := LoadProvider()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:   serverCfg,
		Log:      logCfg,
		Provider: providerCfg,
	}, nil
}
