package handler

import "html/template"

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "articles"}}<!DOCTYPE html>
<html>
<head><title>Articles</title></head>
<body>
{{if .Query}}<h1>Results for &ldquo;{{.Query}}&rdquo;</h1>{{else}}<h1>Articles</h1>{{end}}
<ul>
{{range .Articles}}<li><a href="/articles/{{.ID}}">{{.Title}}</a> by {{.Author}}</li>
{{else}}<li>No articles.</li>
{{end}}</ul>
</body>
</html>
{{end}}

{{define "article"}}<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>by {{.Author}}</p>
<article>{{.Body}}</article>
{{if .Tags}}<ul>{{range .Tags}}<li>{{.}}</li>{{end}}</ul>{{end}}
</body>
</html>
{{end}}
`))
