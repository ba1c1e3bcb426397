package conversion

// uploadResponse is returned by /iniciar_processamento
type uploadResponse struct {
	FileID       string `json:"id_arquivo"`
	TotalPages   int    `json:"total_paginas"`
	OriginalName string `json:"nome_original"`
}

type pageTextRequest struct {
	FileID string `json:"id_arquivo"`
	Page   int    `json:"numero_pagina"`
}

// pageTextResponse keeps Text as a pointer so a missing field is detectable
type pageTextResponse struct {
	Text *string `json:"texto"`
}

type audioBatchRequest struct {
	FileID    string `json:"id_arquivo"`
	StartPage int    `json:"pagina_inicio"`
	EndPage   int    `json:"pagina_fim"`
}

type audioBatchResponse struct {
	AudioURLs []string `json:"audio_urls"`
}

// errorResponse is the body the service sends with non-2xx statuses
type errorResponse struct {
	Error  string `json:"erro"`
	Detail string `json:"detail"`
}

func (e errorResponse) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}
