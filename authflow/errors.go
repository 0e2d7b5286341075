package authflow

// Code is the machine-readable class of a flow error. Handlers use it to
// pick response statuses; the Message is what the form shows inline.
type Code string

const (
	CodeValidation          Code = "validation"
	CodeInvalidCredentials  Code = "invalid_credentials"
	CodeUserNotFound        Code = "user_not_found"
	CodeConnectivity        Code = "connectivity"
	CodeEmailInUse          Code = "email_in_use"
	CodeWeakPassword        Code = "weak_password"
	CodeInvalidEmail        Code = "invalid_email"
	CodePartialRegistration Code = "partial_registration"
	CodeExpired             Code = "expired"
	CodeUnknown             Code = "unknown"
)

// FlowError is the single error shape the orchestrator lets out. Every
// backend failure is converted into one at this boundary, carrying the
// user-facing message for the form that triggered it.
type FlowError struct {
	Code    Code
	Message string
}

func (e *FlowError) Error() string {
	return "authflow: " + string(e.Code) + ": " + e.Message
}

func flowErr(code Code, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

// User-facing messages. The product ships in Brazilian Portuguese.
const (
	msgFillAllFields         = "Preencha todos os campos."
	msgFillRequiredFields    = "Preencha todos os campos obrigatórios."
	msgPasswordsDontMatch    = "As senhas não coincidem!"
	msgInvalidEmailFormat    = "Por favor, insira um email válido"
	msgUsernameTooShort      = "O usuário deve ter no mínimo 3 caracteres"
	msgPasswordTooShort      = "A senha deve ter no mínimo 6 caracteres"
	msgInvalidPhone          = "Telefone inválido"
	msgUserNotFound          = "Usuário não encontrado ou identificador inválido."
	msgResolveConnectivity   = "Erro de conexão ao verificar usuário. Verifique se bloqueadores de anúncios estão ativos."
	msgWrongCredentials      = "Usuário/Email ou senha incorretos."
	msgAccountNotFound       = "Conta não encontrada."
	msgLoginGeneric          = "Falha ao entrar. Verifique suas credenciais."
	msgEmailInUse            = "Este email já está sendo usado."
	msgWeakPassword          = "A senha é muito fraca (mínimo 6 caracteres)."
	msgMalformedEmail        = "Formato de email inválido."
	msgProfileConnectivity   = "Erro de conexão com o banco de dados. Verifique sua internet ou se algum bloqueador de anúncios está impedindo o acesso."
	msgPartialRegistration   = "Conta criada, mas houve um erro ao salvar seu perfil (bloqueador de anúncios detectado?). Tente fazer login."
	msgRegisterGeneric       = "Erro ao criar conta. Tente novamente."
	msgGoogleGeneric         = "Erro ao conectar com Google. Verifique sua conexão."
	msgLoginCancelled        = "Login cancelado."
	msgOnboardingSaveGeneric = "Erro ao salvar perfil."
	msgOnboardingExpired     = "Sessão de cadastro expirada. Entre novamente com o Google."
	msgForgotMissingEmail    = "Digite seu email."
	msgForgotNotFound        = "Email não encontrado."
	msgForgotGeneric         = "Erro ao enviar email."
	msgForgotSent            = "Link de redefinição enviado para o seu email!"
	msgResetInvalidToken     = "Link de redefinição inválido ou expirado."
	msgResetDone             = "Senha redefinida com sucesso! Faça login."
	msgProfileUpdated        = "Perfil atualizado com sucesso!"
	msgProfileUpdateFailed   = "Erro ao atualizar perfil"
)
