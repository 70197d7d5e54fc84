package fixture

import (
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/stoewer/go-strcase"
)

// Tableize returns the conventional table name for a model:
// "BlogPost" becomes "blog_posts".
func Tableize(modelName string) string {
	snake := strcase.SnakeCase(modelName)
	if snake == "" {
		return ""
	}
	words := strings.Split(snake, "_")
	last := len(words) - 1
	words[last] = inflection.Plural(words[last])
	return strings.Join(words, "_")
}

// ModelName returns the model name for a table: "blog_posts" becomes
// "BlogPosts". The plural is kept.
func ModelName(table string) string {
	return Camelize(table)
}

// Camelize converts a name to upper camel case.
func Camelize(name string) string {
	return strcase.UpperCamelCase(name)
}

// FileName returns the fixture file name for a model.
func FileName(modelName string) string {
	return Camelize(modelName) + "Fixture.php"
}

// SplitPlugin splits a plugin-qualified name such as "Blog.Posts" into its
// plugin and model parts. Unqualified names have no plugin.
func SplitPlugin(name string) (plugin, modelName string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
