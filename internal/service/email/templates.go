package email

const welcomeTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #2f3b2f;">
  <h2>Olá, {{.Name}}!</h2>
  <p>Sua conta no AgroVoz está pronta. Agora você pode registrar animais,
  tratamentos, produção e tarefas da fazenda falando com o assistente.</p>
  <p>Experimente: <em>"Cadastrar a vaca Mimosa, raça Girolando, 420 quilos."</em></p>
</body>
</html>`

const taskAssignedTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #2f3b2f;">
  <h2>Nova tarefa para {{if .AssignedTo}}{{.AssignedTo}}{{else}}você{{end}}</h2>
  <table cellpadding="4">
    <tr><td><strong>Tarefa</strong></td><td>{{.Title}}</td></tr>
    {{if .Description}}<tr><td><strong>Descrição</strong></td><td>{{.Description}}</td></tr>{{end}}
    <tr><td><strong>Prioridade</strong></td><td>{{.Priority}}</td></tr>
    {{if .Due}}<tr><td><strong>Prazo</strong></td><td>{{.Due}}</td></tr>{{end}}
  </table>
</body>
</html>`
