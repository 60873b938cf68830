package ninekw

import (
	"net/url"
	"strconv"
)

const (
	defaultEndpoint = "https://www.9kw.eu/index.cgi"
	apiSource       = "go-9kw-api"
)

// 9kw action selectors.
const (
	actionUpload   = "usercaptchaupload"
	actionResult   = "usercaptchacorrectdata"
	actionFeedback = "usercaptchacorrectback"
	actionBalance  = "usercaptchaguthaben"
)

// Feedback codes accepted by usercaptchacorrectback.
const (
	FeedbackCorrect   = 1
	FeedbackIncorrect = 2
	FeedbackAbort     = 3
)

// baseParams returns the parameters every action carries.
func (c *Client) baseParams(action string) url.Values {
	v := url.Values{}
	v.Set("action", action)
	v.Set("apikey", c.cfg.APIKey)
	v.Set("source", c.cfg.Source)
	v.Set("json", "1")
	return v
}

func (c *Client) uploadParams(encoded string, prio, maxTimeout int) url.Values {
	v := c.baseParams(actionUpload)
	v.Set("file-upload-01", encoded)
	v.Set("base64", "1")
	v.Set("prio", strconv.Itoa(prio))
	v.Set("maxtimeout", strconv.Itoa(maxTimeout))
	return v
}

func (c *Client) resultParams(id string) url.Values {
	v := c.baseParams(actionResult)
	v.Set("id", id)
	v.Set("info", "1")
	return v
}

func (c *Client) feedbackParams(id string, code int) url.Values {
	v := c.baseParams(actionFeedback)
	v.Set("id", id)
	v.Set("correct", strconv.Itoa(code))
	return v
}

func (c *Client) balanceParams() url.Values {
	return c.baseParams(actionBalance)
}

// queryURL appends params to the configured endpoint.
func (c *Client) queryURL(params url.Values) string {
	return c.cfg.Endpoint + "?" + params.Encode()
}
