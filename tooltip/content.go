package tooltip

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/yuin/goldmark"

	"github.com/unkn0wn-root/tipcache/api"
)

// Placeholder fills docker fields whose attribute is missing or empty.
const Placeholder = "N/A"

// Data attributes read by the controller.
const (
	AttrItemID           = "data-item-id"
	AttrTooltip          = "data-tooltip"
	AttrDockerName       = "data-docker-name"
	AttrDockerURLPort    = "data-docker-urlport"
	AttrDockerServerIP   = "data-docker-server-ip"
	AttrDockerServerPort = "data-docker-server-port"
	AttrDescription      = "data-description"
)

// DockerInfo is decoded from a docker item's data attributes.
type DockerInfo struct {
	Name        string `mapstructure:"data-docker-name"`
	URLPort     string `mapstructure:"data-docker-urlport"`
	Server      string `mapstructure:"data-docker-server-ip"`
	ServerPort  string `mapstructure:"data-docker-server-port"`
	Description string `mapstructure:"data-description"`
}

// DecodeDocker reads DockerInfo from attrs, substituting Placeholder.
func DecodeDocker(attrs map[string]string) (DockerInfo, error) {
	var info DockerInfo
	if err := mapstructure.Decode(attrs, &info); err != nil {
		return DockerInfo{}, err
	}
	for _, f := range []*string{&info.Name, &info.URLPort, &info.Server, &info.ServerPort, &info.Description} {
		if strings.TrimSpace(*f) == "" {
			*f = Placeholder
		}
	}
	return info, nil
}

var templates = template.Must(template.New("tooltip").Parse(`
{{- define "website" -}}
<div class="tooltip-content">
<div class="tooltip-row"><strong>URL:</strong> {{.URL}}</div>
<div class="tooltip-row"><strong>Last visited:</strong> {{.LastAccess}}</div>
{{- with .Description}}
<div class="tooltip-row"><strong>Description:</strong> {{.}}</div>
{{- end}}
</div>
{{- end -}}

{{- define "invalid" -}}
<div class="tooltip-error">Invalid data</div>
{{- end -}}

{{- define "docker" -}}
<div class="docker-tooltip">
<p>Docker Name: {{.Name}}</p>
<p>URL Port: {{.URLPort}}</p>
<p>Server: {{.Server}}</p>
<p>Server Port: {{.ServerPort}}</p>
<p>Notes: {{.Description}}</p>
</div>
{{- end -}}

{{- define "button" -}}{{.}}{{- end -}}

{{- define "error" -}}
<div class="tooltip-content error">{{.}}</div>
{{- end -}}
`))

// content renders tooltip bodies; all interpolation goes through html/template.
type content struct {
	loc    *time.Location
	layout string
	md     goldmark.Markdown
}

func newContent(cfg Config) *content {
	return &content{loc: cfg.Location, layout: cfg.TimeLayout, md: goldmark.New()}
}

func (c *content) website(w api.Website) (string, error) {
	if w.LastAccessTime.IsZero() {
		return c.exec("invalid", nil)
	}
	view := struct {
		URL         string
		LastAccess  string
		Description template.HTML
	}{
		URL:        w.URL,
		LastAccess: w.LastAccessTime.In(c.loc).Format(c.layout),
	}
	if d := strings.TrimSpace(w.Description); d != "" {
		// goldmark drops raw HTML unless WithUnsafe is set
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(d), &buf); err != nil {
			return "", err
		}
		view.Description = template.HTML(strings.TrimSpace(buf.String()))
	}
	return c.exec("website", view)
}

func (c *content) docker(info DockerInfo) (string, error) { return c.exec("docker", info) }

func (c *content) button(text string) (string, error) { return c.exec("button", text) }

func (c *content) failure(msg string) (string, error) { return c.exec("error", msg) }

func (c *content) exec(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
