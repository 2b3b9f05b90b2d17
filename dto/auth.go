package dto

type AdminLoginRequest struct {
	APIKey string `json:"api_key" validate:"required,min=16"`
}

func (r AdminLoginRequest) Validate() error {
	return GetValidator().Struct(r)
}

type TokenPair struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
