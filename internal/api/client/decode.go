package client

import (
	"encoding/json"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
)

// decodeResponse 拆 {data} 外層後把 key 轉 camelCase 再解到 out
func decodeResponse(body []byte, out any) error {
	generic, err := util.DecodeJSON(body)
	if err != nil {
		return err
	}
	if generic == nil {
		return nil
	}
	if m, ok := generic.(map[string]any); ok {
		if data, ok := m["data"]; ok {
			generic = data
		}
	}
	b, err := json.Marshal(util.ConvertKeys(generic, util.ToCamel))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

/*
parseError 支援兩種格式
{code, message, details}
{error: {code, message, details}}
body 不是 json 時只依 status 判斷
*/
func parseError(status int, body []byte) *apperror.Error {
	var code, message string
	var details map[string]any

	generic, err := util.DecodeJSON(body)
	if err == nil {
		if m, ok := generic.(map[string]any); ok {
			src := m
			if nested, ok := m["error"].(map[string]any); ok {
				src = nested
			}
			code, _ = src["code"].(string)
			message, _ = src["message"].(string)
			if d, ok := src["details"].(map[string]any); ok {
				details, _ = util.ConvertKeys(d, util.ToCamel).(map[string]any)
			}
		}
	}
	return apperror.FromResponse(status, code, message, details)
}
