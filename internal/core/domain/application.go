package domain

// AppConfiguration is the per-environment application file, loaded once per
// command invocation.
type AppConfiguration struct {
	Application Application    `yaml:"application" validate:"required"`
	Settings    map[string]any `yaml:"settings,omitempty"`
}

type Application struct {
	Name       string   `yaml:"name" validate:"required"`
	Branch     string   `yaml:"branch" validate:"required"`
	Pipeline   bool     `yaml:"pipeline,omitempty"`
	Upstream   string   `yaml:"upstream,omitempty" validate:"required_if=Pipeline true"`
	AddTag     bool     `yaml:"add_tag,omitempty"`
	AddRichTag bool     `yaml:"add_rich_tag,omitempty"`
	PostDeploy []string `yaml:"post_deploy,omitempty"`
}

func (c *AppConfiguration) AppName() string       { return c.Application.Name }
func (c *AppConfiguration) DefaultBranch() string { return c.Application.Branch }
func (c *AppConfiguration) UsePipeline() bool     { return c.Application.Pipeline }
func (c *AppConfiguration) UpstreamApp() string   { return c.Application.Upstream }

// PostDeployTasks returns the ordered list of commands to run after delivery.
func (c *AppConfiguration) PostDeployTasks() []string {
	return c.Application.PostDeploy
}

// TagMode is how a release is tagged in git after a deployment.
type TagMode string

const (
	TagNone    TagMode = "none"
	TagDefault TagMode = "default"
	TagRich    TagMode = "custom"
)

// TagMode resolves the configured tagging mode; forceRich comes from the CLI.
func (c *AppConfiguration) TagMode(forceRich bool) TagMode {
	switch {
	case forceRich || c.Application.AddRichTag:
		return TagRich
	case c.Application.AddTag:
		return TagDefault
	default:
		return TagNone
	}
}
