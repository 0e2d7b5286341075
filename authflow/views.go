package authflow

// View names the authentication UI states. The client moves freely between
// login, register and forgot; onboarding is only ever entered through a
// Google sign-in that found no profile, and the only way out of it is
// completing the flow (or dropping the pending cookie).
type View string

const (
	ViewLogin      View = "login"
	ViewRegister   View = "register"
	ViewForgot     View = "forgot"
	ViewOnboarding View = "onboarding"
)
